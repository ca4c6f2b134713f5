package api

import (
	"fmt"
	"net/http"
	"net/url"
)

// UserStats represents per-user content counts
type UserStats struct {
	Notes int `json:"notes"`
	Tags  int `json:"tags"`
}

// ListUsers returns every user account. Admin only.
func (c *Client) ListUsers() ([]User, error) {
	var users []User
	if err := c.do("list users", http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser returns a single user by id. Admin only.
func (c *Client) GetUser(userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user lookup requires a user id: %w", ErrValidation)
	}

	var user User
	if err := c.do("get user", http.MethodGet, fmt.Sprintf("/api/users/%s", userID), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchUsers searches accounts by keyword. Admin only.
func (c *Client) SearchUsers(keyword string) ([]User, error) {
	var users []User
	path := fmt.Sprintf("/api/users/search?keyword=%s", url.QueryEscape(keyword))
	if err := c.do("search users", http.MethodGet, path, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUserStats returns note/tag counts for a user. Admin only.
func (c *Client) GetUserStats(userID string) (*UserStats, error) {
	if userID == "" {
		return nil, fmt.Errorf("user stats require a user id: %w", ErrValidation)
	}

	var stats UserStats
	if err := c.do("user stats", http.MethodGet, fmt.Sprintf("/api/users/%s/stats", userID), nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// DeleteUser removes a user and cascades to their notes and tags. The acting
// admin is identified for the audit notification the service sends.
func (c *Client) DeleteUser(userID, adminID, adminName string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user deletion requires a user id: %w", ErrValidation)
	}
	if adminID == "" {
		return "", fmt.Errorf("user deletion requires an acting admin: %w", ErrValidation)
	}

	path := fmt.Sprintf("/api/users/%s?cascade=true&adminId=%s&adminName=%s",
		userID, url.QueryEscape(adminID), url.QueryEscape(adminName))

	var res messageResponse
	if err := c.do("delete user", http.MethodDelete, path, nil, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

// UpdateUserAsAdmin updates another user's profile fields. Admin only.
func (c *Client) UpdateUserAsAdmin(userID string, upd ProfileUpdate, adminName string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user update requires a user id: %w", ErrValidation)
	}

	path := fmt.Sprintf("/api/users/%s?adminName=%s", userID, url.QueryEscape(adminName))

	var user User
	if err := c.do("update user", http.MethodPut, path, upd, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
