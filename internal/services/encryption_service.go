package services

import (
	"stickygoals/internal/crypto"
	"stickygoals/internal/models"
)

// EncryptionService seals the free-text fields of goals, milestones and
// journal entries before they reach the store. A nil cipher turns it into
// a passthrough, which is how the server runs without configured keys.
type EncryptionService struct {
	cipher *crypto.Cipher
}

func NewEncryptionService(c *crypto.Cipher) *EncryptionService {
	return &EncryptionService{cipher: c}
}

// NewEncryptionServiceFromKeys builds a sealing service from base64 keys.
// Both empty means no encryption.
func NewEncryptionServiceFromKeys(encryptionKey, blindIndexKey string) (*EncryptionService, error) {
	if encryptionKey == "" && blindIndexKey == "" {
		return NewEncryptionService(nil), nil
	}
	ek, err := crypto.DecodeKey(encryptionKey)
	if err != nil {
		return nil, err
	}
	ik, err := crypto.DecodeKey(blindIndexKey)
	if err != nil {
		return nil, err
	}
	c, err := crypto.NewCipher(ek, ik)
	if err != nil {
		return nil, err
	}
	return NewEncryptionService(c), nil
}

func (s *EncryptionService) Enabled() bool { return s.cipher != nil }

func (s *EncryptionService) seal(v string) (string, error) {
	if s.cipher == nil {
		return v, nil
	}
	return s.cipher.Encrypt(v)
}

func (s *EncryptionService) open(v string) (string, error) {
	if s.cipher == nil {
		return v, nil
	}
	return s.cipher.Decrypt(v)
}

// LabelIndex maps goal text to the value stored for label lookups.
func (s *EncryptionService) LabelIndex(text string) string {
	norm := models.NormalizeLabel(text)
	if s.cipher == nil {
		return norm
	}
	return s.cipher.BlindIndex(norm)
}

// SealGoal encrypts the goal text and fills the label index.
func (s *EncryptionService) SealGoal(g *models.Goal) error {
	g.LabelIndex = s.LabelIndex(g.Text)
	text, err := s.seal(g.Text)
	if err != nil {
		return err
	}
	g.Text = text
	return nil
}

func (s *EncryptionService) OpenGoal(g *models.Goal) error {
	text, err := s.open(g.Text)
	if err != nil {
		return err
	}
	g.Text = text
	return nil
}

func (s *EncryptionService) SealMilestone(m *models.Milestone) error {
	text, err := s.seal(m.Text)
	if err != nil {
		return err
	}
	m.Text = text
	return nil
}

func (s *EncryptionService) OpenMilestone(m *models.Milestone) error {
	text, err := s.open(m.Text)
	if err != nil {
		return err
	}
	m.Text = text
	return nil
}

// SealJournal encrypts the response, goal label and milestone reference.
func (s *EncryptionService) SealJournal(e *models.JournalEntry) error {
	return s.mapJournal(e, s.seal)
}

func (s *EncryptionService) OpenJournal(e *models.JournalEntry) error {
	return s.mapJournal(e, s.open)
}

func (s *EncryptionService) mapJournal(e *models.JournalEntry, fn func(string) (string, error)) error {
	var err error
	if e.Response, err = fn(e.Response); err != nil {
		return err
	}
	if e.GoalLabel, err = fn(e.GoalLabel); err != nil {
		return err
	}
	if e.Milestone != nil {
		m, err := fn(*e.Milestone)
		if err != nil {
			return err
		}
		e.Milestone = &m
	}
	return nil
}
