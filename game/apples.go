package game

// Apple is a piece of food that vanishes once its lifetime runs out.
type Apple struct {
	At       Location `json:"at"`
	LifeLeft int      `json:"life_left"`
}

// AppleSet is the mutable apple collection owned by a Board.
// Apple locations are assumed unique.
type AppleSet struct {
	apples []Apple
}

func NewAppleSet(apples []Apple) *AppleSet {
	out := &AppleSet{apples: make([]Apple, len(apples))}
	copy(out.apples, apples)
	return out
}

func (a *AppleSet) Len() int         { return len(a.apples) }
func (a *AppleSet) Empty() bool      { return len(a.apples) == 0 }
func (a *AppleSet) At(i int) Apple   { return a.apples[i] }
func (a *AppleSet) Clone() *AppleSet { return NewAppleSet(a.apples) }

// All returns a copy of the apples.
func (a *AppleSet) All() []Apple {
	out := make([]Apple, len(a.apples))
	copy(out, a.apples)
	return out
}

// IndexAt returns the index of the apple at l, or -1.
func (a *AppleSet) IndexAt(l Location) int {
	for i := range a.apples {
		if a.apples[i].At == l {
			return i
		}
	}
	return -1
}

// MaxLife is the longest remaining lifetime, 0 when empty.
func (a *AppleSet) MaxLife() int {
	longest := 0
	for _, apple := range a.apples {
		if apple.LifeLeft > longest {
			longest = apple.LifeLeft
		}
	}
	return longest
}

// Add appends an apple. Used by hosts when spawning.
func (a *AppleSet) Add(apple Apple) {
	a.apples = append(a.apples, apple)
}

func (a *AppleSet) removeAt(i int) Apple {
	removed := a.apples[i]
	copy(a.apples[i:], a.apples[i+1:])
	a.apples = a.apples[:len(a.apples)-1]
	return removed
}

func (a *AppleSet) insertAt(i int, apple Apple) {
	a.apples = append(a.apples, Apple{})
	copy(a.apples[i+1:], a.apples[i:])
	a.apples[i] = apple
}

// AgeUndo restores an AppleSet to its state before Age.
type AgeUndo struct {
	lives   []int
	removed int
	apple   Apple
}

// Buffer hands back the scratch slice passed to Age so callers can reuse it.
func (u AgeUndo) Buffer() []int { return u.lives }

// Age runs one aging pass: every apple loses one life, except apples already
// at one life. Exactly one of those (the last one found) is removed; the rest
// stay at one and expire on later passes.
//
// buf is scratch storage for the undo record and may be nil.
func (a *AppleSet) Age(buf []int) AgeUndo {
	u := AgeUndo{lives: buf[:0], removed: -1}
	for i := range a.apples {
		u.lives = append(u.lives, a.apples[i].LifeLeft)
		if a.apples[i].LifeLeft == 1 {
			u.removed = i
			continue
		}
		a.apples[i].LifeLeft--
	}
	if u.removed >= 0 {
		u.apple = a.removeAt(u.removed)
	}
	return u
}

// UndoAge reverts the pass that produced u. Any mutation made after Age must
// already be undone.
func (a *AppleSet) UndoAge(u AgeUndo) {
	if u.removed >= 0 {
		a.insertAt(u.removed, u.apple)
	}
	for i, life := range u.lives {
		a.apples[i].LifeLeft = life
	}
}
