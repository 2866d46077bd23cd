package repository

import "context"

// ResumeArchive сохраняет исходные документы резюме
type ResumeArchive interface {
	Store(ctx context.Context, candidateID, fileName, contentType string, data []byte) (string, error)
}
