package domain

import "golang.org/x/crypto/bcrypt"

// Identity is a registered user and their saved-story history, most recent
// first. Credentials are stored as bcrypt hashes, never plaintext.
type Identity struct {
	Username       string       `json:"username"`
	CredentialHash []byte       `json:"credentialHash"`
	History        []SavedStory `json:"history"`
}

// NewIdentity creates an identity with an empty history and a hashed
// credential.
func NewIdentity(username, credential string) (*Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Identity{Username: username, CredentialHash: hash, History: []SavedStory{}}, nil
}

// VerifyCredential reports whether the credential matches the stored hash.
// Exact match only; there is no case-insensitive or partial fallback.
func (id *Identity) VerifyCredential(credential string) bool {
	return bcrypt.CompareHashAndPassword(id.CredentialHash, []byte(credential)) == nil
}

// PutStory upserts a saved story: an existing ID is replaced in place, a new
// one is prepended so the history stays most-recent-first.
func (id *Identity) PutStory(story SavedStory) {
	for i := range id.History {
		if id.History[i].ID == story.ID {
			id.History[i] = story
			return
		}
	}
	id.History = append([]SavedStory{story}, id.History...)
}

// RemoveStory drops the saved story with the given ID.
// Returns ErrStoryNotFound when the ID is absent.
func (id *Identity) RemoveStory(storyID string) error {
	for i := range id.History {
		if id.History[i].ID == storyID {
			id.History = append(id.History[:i], id.History[i+1:]...)
			return nil
		}
	}
	return ErrStoryNotFound
}

// FindStory looks up a saved story by ID.
func (id *Identity) FindStory(storyID string) (*SavedStory, error) {
	for i := range id.History {
		if id.History[i].ID == storyID {
			return &id.History[i], nil
		}
	}
	return nil, ErrStoryNotFound
}
