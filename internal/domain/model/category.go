package model

import "errors"

// Category is a user-defined grouping for tasks.
type Category struct {
	ID     CategoryID
	UserID UserID
	Name   string
	Color  string
}

// NewCategory creates a category with validation.
func NewCategory(id CategoryID, userID UserID, name, color string) (*Category, error) {
	if id == "" {
		return nil, errors.New("category ID cannot be empty")
	}
	if name == "" {
		return nil, errors.New("category name cannot be empty")
	}
	return &Category{ID: id, UserID: userID, Name: name, Color: color}, nil
}
