// Package provider orchestrates the row store queries and write batches
// behind the bridge operations: listing, searching, and the create, update
// and delete flows including their post-write read-back.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"sync"

	"gitlab.com/dirk.krummacker/addressbook-bridge/internal/aggregate"
	"gitlab.com/dirk.krummacker/addressbook-bridge/internal/batch"
	"gitlab.com/dirk.krummacker/addressbook-bridge/internal/model"
	"gitlab.com/dirk.krummacker/addressbook-bridge/internal/rowstore"
)

// Permission outcomes reported to callers.
const (
	PermissionAuthorized = "authorized"
	PermissionDenied     = "denied"
)

// Provider executes bridge operations against one row store. Reads may run
// concurrently; writes are serialized so two batches never interleave against
// the same contact.
type Provider struct {
	store   rowstore.Store
	writeMu sync.Mutex
}

// New returns a provider on top of the given store.
func New(store rowstore.Store) *Provider {
	return &Provider{store: store}
}

// ListAll returns every contact: the device owner's profile first, then
// everyone else, each in the store's natural order.
func (p *Provider) ListAll(ctx context.Context) ([]*model.Contact, error) {
	profileRows, err := p.store.QueryRows(ctx, rowstore.ProfileContact())
	if err != nil {
		return nil, err
	}
	rows, err := p.store.QueryRows(ctx, rowstore.AllContacts())
	if err != nil {
		return nil, err
	}
	profile := aggregate.Collect(slices.Values(profileRows))
	everyoneElse := aggregate.Collect(slices.Values(rows))
	return append(profile.Contacts(), everyoneElse.Contacts()...), nil
}

// ContactsMatching returns the contacts whose display name or company
// contains the given text.
func (p *Provider) ContactsMatching(ctx context.Context, text string) ([]*model.Contact, error) {
	return p.query(ctx, rowstore.MatchingText(text))
}

// ContactsByPhone returns the contacts having a phone number containing the
// given digits.
func (p *Provider) ContactsByPhone(ctx context.Context, number string) ([]*model.Contact, error) {
	return p.query(ctx, rowstore.MatchingPhone(number))
}

// ContactsByEmail returns the contacts having an email address starting with
// the given prefix.
func (p *Provider) ContactsByEmail(ctx context.Context, address string) ([]*model.Contact, error) {
	return p.query(ctx, rowstore.MatchingEmail(address))
}

// ContactByID returns a single contact, or nil when it does not exist.
func (p *Provider) ContactByID(ctx context.Context, recordID string) (*model.Contact, error) {
	contacts, err := p.query(ctx, rowstore.ByContactID(recordID))
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, nil
	}
	return contacts[0], nil
}

// ContactByRawID returns the contact owning a raw record, or nil when it
// does not exist.
func (p *Provider) ContactByRawID(ctx context.Context, rawContactID string) (*model.Contact, error) {
	contacts, err := p.query(ctx, rowstore.ByRawContactID(rawContactID))
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, nil
	}
	return contacts[0], nil
}

// Count returns the number of contacts on the device.
func (p *Provider) Count(ctx context.Context) (int, error) {
	return p.store.Count(ctx)
}

// PhotoURI returns the photo path of a contact, or an empty string when the
// contact has no photo.
func (p *Provider) PhotoURI(ctx context.Context, recordID string) (string, error) {
	return p.store.PhotoURI(ctx, recordID)
}

// OpenPhoto streams a contact's photo bytes.
func (p *Provider) OpenPhoto(ctx context.Context, recordID string) (io.ReadCloser, error) {
	return p.store.OpenPhoto(ctx, recordID)
}

// AddContact creates a contact from the request and returns the canonical
// persisted aggregate read back from the store. A read-back that finds
// nothing yields a nil contact, not an error.
func (p *Provider) AddContact(ctx context.Context, req *model.WriteRequest) (*model.Contact, error) {
	ops, err := batch.BuildCreate(req)
	if err != nil {
		return nil, err
	}

	p.writeMu.Lock()
	results, err := p.store.ApplyBatch(ctx, ops)
	p.writeMu.Unlock()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("add contact: store returned no results")
	}
	newID := strconv.FormatInt(results[0].LastInsertID, 10)
	return p.ContactByID(ctx, newID)
}

// UpdateContact replaces the stored state of a contact per the request and
// returns the canonical persisted aggregate.
func (p *Provider) UpdateContact(ctx context.Context, req *model.WriteRequest) (*model.Contact, error) {
	ops, err := batch.BuildUpdate(req)
	if err != nil {
		return nil, err
	}

	p.writeMu.Lock()
	_, err = p.store.ApplyBatch(ctx, ops)
	p.writeMu.Unlock()
	if err != nil {
		return nil, err
	}
	if req.RecordID != "" {
		return p.ContactByID(ctx, req.RecordID)
	}
	return p.ContactByRawID(ctx, req.RawContactID)
}

// DeleteContact removes a contact. It returns the record id when something
// was deleted and an empty string when the contact did not exist.
func (p *Provider) DeleteContact(ctx context.Context, recordID string) (string, error) {
	ops, err := batch.BuildDelete(recordID)
	if err != nil {
		return "", err
	}

	p.writeMu.Lock()
	results, err := p.store.ApplyBatch(ctx, ops)
	p.writeMu.Unlock()
	if err != nil {
		return "", err
	}
	for _, r := range results {
		if r.RowsAffected > 0 {
			return recordID, nil
		}
	}
	return "", nil
}

// CheckPermission reports whether the address book is accessible. The bridge
// maps store reachability onto the authorized/denied vocabulary callers
// expect.
func (p *Provider) CheckPermission(ctx context.Context) string {
	if err := p.store.Ping(ctx); err != nil {
		return PermissionDenied
	}
	return PermissionAuthorized
}

// RequestPermission requests address book access. There is no interactive
// grant flow on this side of the bridge, so the answer equals the current
// permission state of each individual call; no state is shared between
// overlapping requests.
func (p *Provider) RequestPermission(ctx context.Context) string {
	return p.CheckPermission(ctx)
}

func (p *Provider) query(ctx context.Context, q rowstore.Query) ([]*model.Contact, error) {
	rows, err := p.store.QueryRows(ctx, q)
	if err != nil {
		return nil, err
	}
	return aggregate.Collect(slices.Values(rows)).Contacts(), nil
}

// IsNotFound reports whether an error is the store's missing-record signal.
func IsNotFound(err error) bool {
	return errors.Is(err, rowstore.ErrNotFound)
}
