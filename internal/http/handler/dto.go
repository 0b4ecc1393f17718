package handler

import (
	"time"

	"notka/internal/model"
)

// NoteResponse is the JSON shape of a note.
// FilePath mirrors the last entry of Files for clients that only show one attachment.
type NoteResponse struct {
	ID         string    `json:"id" example:"5b0d3c1e-4f0a-4a53-9d36-1f7d1c0f4a11"`
	Title      string    `json:"title" example:"Lecture 3"`
	Content    string    `json:"content" example:"Recursion and induction"`
	PageNumber *int      `json:"page_number" example:"12"`
	FilePath   *string   `json:"file_path" example:"20250102_150405_slides.pdf"`
	Files      []string  `json:"files"`
	CreatedAt  time.Time `json:"created_at"`
}

// UpdateNoteRequest is the body of PUT /notes/{id}. Omitted or null fields are left unchanged.
type UpdateNoteRequest struct {
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	PageNumber *int    `json:"page_number"`
}

// DetachFileRequest is the body of DELETE /notes/{id}/file.
type DetachFileRequest struct {
	FilePath string `json:"file_path" example:"20250102_150405_slides.pdf"`
}

func toNoteResponse(n *model.Note) NoteResponse {
	files := n.Files
	if files == nil {
		files = []string{}
	}
	return NoteResponse{
		ID:         n.ID,
		Title:      n.Title,
		Content:    n.Content,
		PageNumber: n.PageNumber,
		FilePath:   n.LegacyFilePath(),
		Files:      files,
		CreatedAt:  n.CreatedAt,
	}
}

func toNoteResponses(notes []model.Note) []NoteResponse {
	out := make([]NoteResponse, 0, len(notes))
	for i := range notes {
		out = append(out, toNoteResponse(&notes[i]))
	}
	return out
}

func (r UpdateNoteRequest) patch() model.NotePatch {
	return model.NotePatch{
		Title:      r.Title,
		Content:    r.Content,
		PageNumber: r.PageNumber,
	}
}
