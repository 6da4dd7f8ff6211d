// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/acm-mitb/acm-site/internal/live"
	"github.com/acm-mitb/acm-site/internal/markup"
	"github.com/acm-mitb/acm-site/internal/model"
	"github.com/acm-mitb/acm-site/internal/store"
)

// ProfileStatus tells whether the profile gate must be shown to an identity.
type ProfileStatus struct {
	Complete bool           `json:"complete"`
	Profile  *model.Profile `json:"profile,omitempty"`
}

// ProfileService creates and reads member profiles in the users collection.
type ProfileService struct {
	docs store.Documents
	hub  *live.Hub
	now  func() time.Time
}

// NewProfileService creates the profile service.
func NewProfileService(docs store.Documents, hub *live.Hub) *ProfileService {
	return &ProfileService{docs: docs, hub: hub, now: time.Now}
}

// Get returns the stored profile of uid. Privilege is read from the raw
// document, so only a boolean true townhall value grants access.
func (s *ProfileService) Get(ctx context.Context, uid string) (model.Profile, error) {
	d, err := s.docs.Get(ctx, model.CollectionUsers, uid)
	if err != nil {
		return model.Profile{}, storeError("users.get", err)
	}

	var p model.Profile
	if err := json.Unmarshal(d.Data, &p); err != nil {
		return model.Profile{}, model.RemoteError("users.get", fmt.Errorf("decoding profile %s: %w", uid, err))
	}
	if p.UID == "" {
		p.UID = uid
	}
	return p, nil
}

// Status reports whether uid has completed the profile gate.
func (s *ProfileService) Status(ctx context.Context, uid string) (ProfileStatus, error) {
	p, err := s.Get(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		return ProfileStatus{}, nil
	}
	if err != nil {
		return ProfileStatus{}, err
	}
	return ProfileStatus{Complete: true, Profile: &p}, nil
}

// Complete validates form and creates the profile of id. Rules apply in
// order and the first failure is returned. Registration number and phone
// are unique across profiles; the store indexes make concurrent duplicate
// submissions fail with a uniqueness conflict.
func (s *ProfileService) Complete(ctx context.Context, id model.Identity, form model.ProfileForm) (model.Profile, error) {
	const op = "users.create"

	form = form.Normalize()
	if err := form.Validate(s.now()); err != nil {
		return model.Profile{}, err
	}

	if _, err := s.docs.Get(ctx, model.CollectionUsers, id.UID); err == nil {
		return model.Profile{}, conflict(op, "uid", model.MsgProfileExists)
	} else if !errors.Is(err, store.ErrNotFound) {
		return model.Profile{}, storeError(op, err)
	}

	if err := s.checkUnique(ctx, id.UID, form); err != nil {
		return model.Profile{}, err
	}

	name := markup.Text(form.Name)
	if name == "" {
		name = id.Name
	}

	p := model.Profile{
		UID:          id.UID,
		AuthEmail:    id.Email,
		Name:         name,
		RegNo:        form.RegNo,
		StudentEmail: form.StudentEmail,
		Year:         form.Year,
		Department:   form.EffectiveDepartment(),
		DOB:          form.DOB,
		Phone:        form.Phone,
		Townhall:     false,
		CreatedAt:    s.now().UTC().Format(time.RFC3339),
	}

	if _, err := s.docs.Insert(ctx, model.CollectionUsers, id.UID, p); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Lost a race: report the field that now collides.
			if uerr := s.checkUnique(ctx, id.UID, form); uerr != nil {
				return model.Profile{}, uerr
			}
			return model.Profile{}, conflict(op, "uid", model.MsgProfileExists)
		}
		return model.Profile{}, storeError(op, err)
	}

	s.hub.Publish(model.CollectionUsers)
	slog.Info("profile completed", "uid", id.UID, "category", model.LogCategoryProfile)
	return p, nil
}

func (s *ProfileService) checkUnique(ctx context.Context, uid string, form model.ProfileForm) error {
	const op = "users.create"

	checks := []struct {
		field, value, message string
	}{
		{"regNo", form.RegNo, model.MsgRegNoTaken},
		{"phone", form.Phone, model.MsgPhoneTaken},
	}
	for _, c := range checks {
		docs, err := s.docs.List(ctx, model.CollectionUsers, store.Query{}.Where(c.field, store.OpEqual, c.value).Take(2))
		if err != nil {
			return storeError(op, err)
		}
		for _, d := range docs {
			if d.ID != uid {
				return conflict(op, c.field, c.message)
			}
		}
	}
	return nil
}

// List returns every stored profile in creation order. Documents that do
// not decode are logged and skipped.
func (s *ProfileService) List(ctx context.Context) ([]model.Profile, error) {
	docs, err := s.docs.List(ctx, model.CollectionUsers, store.Query{})
	if err != nil {
		return nil, storeError("users.list", err)
	}

	out := make([]model.Profile, 0, len(docs))
	for _, d := range docs {
		var p model.Profile
		if err := json.Unmarshal(d.Data, &p); err != nil {
			slog.Warn("skipping malformed profile", "id", d.ID, "error", err, "category", model.LogCategoryProfile)
			continue
		}
		if p.UID == "" {
			p.UID = d.ID
		}
		out = append(out, p)
	}
	return out, nil
}

func conflict(op, field, message string) *model.Error {
	return &model.Error{
		Kind:    model.KindUniquenessConflict,
		Op:      op,
		Message: message,
		Fields:  map[string]string{field: message},
	}
}
