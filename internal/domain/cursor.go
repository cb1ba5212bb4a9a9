package domain

// Cursor is one user's caret inside a document. One entry per
// (documentId, userId) pair, overwritten on each move.
type Cursor struct {
	DocumentID string `json:"documentId"`
	UserID     UserID `json:"userId"`
	Position   int    `json:"position"`
	Color      string `json:"color"`
}

// cursorPalette is shared with clients; independent implementations must
// agree on both the palette and the hash below.
var cursorPalette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#FFA07A",
	"#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E9",
}

// ColorFor derives a cursor color from the user id alone, so the same
// user keeps the same color across reconnects and across documents.
func ColorFor(userID UserID) string {
	var h uint32
	for _, c := range []byte(userID) {
		h = h*31 + uint32(c)
	}
	return cursorPalette[h%uint32(len(cursorPalette))]
}
