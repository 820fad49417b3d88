package textbooks

// Textbook is a learning material bound to a school class year.
type Textbook struct {
	ID          int64
	SchoolClass int
	Title       string
	Slug        string
	IsActive    bool
}

// CreateInput carries the fields accepted on creation.
type CreateInput struct {
	SchoolClass int    `json:"school_class"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
}

// Patch applies a partial update; nil fields keep their stored values.
type Patch struct {
	SchoolClass *int    `json:"school_class"`
	Title       *string `json:"title"`
	Slug        *string `json:"slug"`
}

// Response is the API projection of a textbook.
type Response struct {
	ID          int64  `json:"id"`
	SchoolClass int    `json:"school_class"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	IsActive    bool   `json:"is_active"`
}

// ToResponse projects a textbook for the API.
func ToResponse(t *Textbook) Response {
	return Response{
		ID:          t.ID,
		SchoolClass: t.SchoolClass,
		Title:       t.Title,
		Slug:        t.Slug,
		IsActive:    t.IsActive,
	}
}
