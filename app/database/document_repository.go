package database

import (
	"database/sql"
	"fmt"
)

// DocumentRepository handles database operations for tracked documents
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// CreateDocument inserts a new tracked document and returns it with its
// generated id and creation timestamp
func (r *DocumentRepository) CreateDocument(title, description, url, status, category string) (Document, error) {
	if status == "" {
		status = "Healthy"
	}
	if category == "" {
		category = "General"
	}

	doc := Document{
		Title:       title,
		Description: description,
		URL:         url,
		Status:      status,
		Category:    category,
	}

	err := r.db.QueryRow(`
		INSERT INTO documents (title, description, url, status, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, title, description, url, status, category).Scan(&doc.ID, &doc.CreatedAt)
	if err != nil {
		return Document{}, fmt.Errorf("failed to create document: %w", err)
	}

	return doc, nil
}

// GetDocument returns a document by id, or nil when it does not exist
func (r *DocumentRepository) GetDocument(id int64) (*Document, error) {
	var doc Document
	err := r.db.QueryRow(`
		SELECT id, title, description, url, status, category, created_at
		FROM documents
		WHERE id = $1
	`, id).Scan(&doc.ID, &doc.Title, &doc.Description, &doc.URL, &doc.Status, &doc.Category, &doc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return &doc, nil
}

// GetDocumentByURL returns the document tracking the given URL, or nil
func (r *DocumentRepository) GetDocumentByURL(url string) (*Document, error) {
	var doc Document
	err := r.db.QueryRow(`
		SELECT id, title, description, url, status, category, created_at
		FROM documents
		WHERE url = $1
	`, url).Scan(&doc.ID, &doc.Title, &doc.Description, &doc.URL, &doc.Status, &doc.Category, &doc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document by URL: %w", err)
	}

	return &doc, nil
}

// GetAllDocuments returns all tracked documents, newest first
func (r *DocumentRepository) GetAllDocuments() ([]Document, error) {
	rows, err := r.db.Query(`
		SELECT id, title, description, url, status, category, created_at
		FROM documents
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		err := rows.Scan(&doc.ID, &doc.Title, &doc.Description, &doc.URL, &doc.Status, &doc.Category, &doc.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate document rows: %w", err)
	}

	return docs, nil
}

// GetDocumentCount returns the number of tracked documents
func (r *DocumentRepository) GetDocumentCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}
