package lineedit

// Buffer holds the line being edited and the cursor position within it.
// The cursor is always in [0, Len()].
type Buffer struct {
	runes    []rune
	cursor   int
	capacity int
}

// NewBuffer creates an empty buffer holding at most capacity runes.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		runes:    make([]rune, 0, capacity),
		capacity: capacity,
	}
}

// Insert adds r at the cursor and advances the cursor. It returns false and
// leaves the buffer untouched if the buffer is full.
func (b *Buffer) Insert(r rune) bool {
	if len(b.runes) >= b.capacity {
		return false
	}

	b.runes = append(b.runes, 0)
	copy(b.runes[b.cursor+1:], b.runes[b.cursor:])
	b.runes[b.cursor] = r
	b.cursor++
	return true
}

// Backspace removes the rune before the cursor.
func (b *Buffer) Backspace() bool {
	if b.cursor == 0 {
		return false
	}
	b.runes = append(b.runes[:b.cursor-1], b.runes[b.cursor:]...)
	b.cursor--
	return true
}

// Delete removes the rune under the cursor.
func (b *Buffer) Delete() bool {
	if b.cursor >= len(b.runes) {
		return false
	}
	b.runes = append(b.runes[:b.cursor], b.runes[b.cursor+1:]...)
	return true
}

// Left moves the cursor one rune towards the start.
func (b *Buffer) Left() bool {
	if b.cursor == 0 {
		return false
	}
	b.cursor--
	return true
}

// Right moves the cursor one rune towards the end.
func (b *Buffer) Right() bool {
	if b.cursor >= len(b.runes) {
		return false
	}
	b.cursor++
	return true
}

// Len returns the number of runes in the buffer.
func (b *Buffer) Len() int {
	return len(b.runes)
}

// Cursor returns the cursor index.
func (b *Buffer) Cursor() int {
	return b.cursor
}

// Tail returns the text from the cursor to the end of the line.
func (b *Buffer) Tail() string {
	return string(b.runes[b.cursor:])
}

func (b *Buffer) String() string {
	return string(b.runes)
}
