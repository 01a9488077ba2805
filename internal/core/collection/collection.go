package collection

import (
	"github.com/google/uuid"

	"github.com/codellyson/quick-rest/internal/core/request"
)

// Collection is a named group of saved request drafts.
type Collection struct {
	Name     string  `yaml:"name"`
	Version  string  `yaml:"version"`
	Requests []Saved `yaml:"requests"`
}

// Saved is one request draft persisted under a collection.
type Saved struct {
	ID       string           `yaml:"id"`
	Name     string           `yaml:"name"`
	Document request.Document `yaml:"document"`
}

// New creates an empty collection.
func New(name string) *Collection {
	return &Collection{Name: name, Version: "1"}
}

// Add appends a draft under the given display name and returns its ID.
func (c *Collection) Add(name string, doc request.Document) string {
	s := Saved{
		ID:       uuid.New().String(),
		Name:     name,
		Document: doc.Clone(),
	}
	c.Requests = append(c.Requests, s)
	return s.ID
}

// Find returns the saved request with the given ID, or nil.
func (c *Collection) Find(id string) *Saved {
	for i := range c.Requests {
		if c.Requests[i].ID == id {
			return &c.Requests[i]
		}
	}
	return nil
}

// Remove deletes the saved request with the given ID, reporting whether it
// existed.
func (c *Collection) Remove(id string) bool {
	for i := range c.Requests {
		if c.Requests[i].ID == id {
			c.Requests = append(c.Requests[:i], c.Requests[i+1:]...)
			return true
		}
	}
	return false
}
