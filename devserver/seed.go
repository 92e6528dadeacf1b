package devserver

import (
	"fmt"
	"time"

	"github.com/randalmurphal/reviewdesk/content"
	"github.com/randalmurphal/reviewdesk/session"
)

// SeedPassword is the password of every seeded account.
const SeedPassword = "reviewdesk-dev"

// Seeded accounts.
const (
	SeedCreatorEmail   = "creator@reviewdesk.test"
	SeedApproverAEmail = "approver-a@reviewdesk.test"
	SeedApproverBEmail = "approver-b@reviewdesk.test"
)

// Seeded describes what Seed created.
type Seeded struct {
	Creator   User
	ApproverA User
	ApproverB User
	Brand     Brand
	Items     []content.Item
	IngestKey string
}

// User returns the seeded account holding role.
func (sd *Seeded) User(role session.Role) (User, bool) {
	switch role {
	case session.RoleCreator:
		return sd.Creator, true
	case session.RoleApproverA:
		return sd.ApproverA, true
	case session.RoleApproverB:
		return sd.ApproverB, true
	default:
		return User{}, false
	}
}

// Seed populates s with one account per role, a brand with a manual, three
// PENDING items (one per content type, newest last) and an ingest key for
// the creator.
func Seed(s *Server) (*Seeded, error) {
	st := s.Store()
	sd := &Seeded{}

	users := []struct {
		email string
		role  session.Role
		dst   *User
	}{
		{SeedCreatorEmail, session.RoleCreator, &sd.Creator},
		{SeedApproverAEmail, session.RoleApproverA, &sd.ApproverA},
		{SeedApproverBEmail, session.RoleApproverB, &sd.ApproverB},
	}
	for _, u := range users {
		created, err := st.AddUser(u.email, SeedPassword, u.role)
		if err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
		*u.dst = created
	}

	sd.Brand = st.AddBrand("Northwind Outfitters", Manual{
		AllowedFormats: []string{"png", "jpeg"},
		MinWidth:       800,
		MinHeight:      800,
		MaxAspectRatio: 2,
	})

	briefs := []struct {
		typ    content.Type
		brief  string
		output string
	}{
		{content.TypeProductDescription, "Trail jacket, spring drop", "Built for shoulder season: the Ridgeline shell sheds wind and light rain without the bulk."},
		{content.TypeVideoScript, "15s teaser for the Ridgeline shell", "Open on fog. Zipper pull. Voiceover: \"Weather changes. You don't have to.\""},
		{content.TypeImagePrompt, "Hero shot, Ridgeline shell", "Hiker on a ridge at dawn, teal shell, soft backlight, brand green accents, no text."},
	}
	base := st.now().UTC().Add(-time.Duration(len(briefs)) * time.Hour)
	for i, b := range briefs {
		it, err := st.AddItem(sd.Creator.ID, content.Item{
			BrandID:    sd.Brand.ID,
			Type:       b.typ,
			InputBrief: b.brief,
			OutputText: b.output,
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
		sd.Items = append(sd.Items, it)
	}

	key, err := s.IssueIngestKey(sd.Creator)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	sd.IngestKey = key
	return sd, nil
}
