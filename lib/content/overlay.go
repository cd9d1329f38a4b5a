// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package content

import (
	"github.com/depot-foundation/depot/lib/title"
	"github.com/depot-foundation/depot/lib/vfs"
)

// UpdateOverlay decorates a provider so queries for a base title
// resolve to the title's installed update when one exists. Program,
// control, and data records are overlaid; meta records never are,
// since the base meta describes the base packaging itself.
//
// The overlay does not rewrite listings: List reports what is
// actually stored. Only point lookups are redirected.
type UpdateOverlay struct {
	backing Provider
}

var _ Provider = (*UpdateOverlay)(nil)

// NewUpdateOverlay wraps a provider with update redirection.
func NewUpdateOverlay(backing Provider) *UpdateOverlay {
	return &UpdateOverlay{backing: backing}
}

// overlays reports whether a record type participates in update
// redirection.
func overlays(recordType title.ContentRecordType) bool {
	switch recordType {
	case title.ContentProgram, title.ContentControl, title.ContentData:
		return true
	default:
		return false
	}
}

// target picks the id to resolve: the update id when the backing
// provider holds an update record of this type, the base id
// otherwise. Queries already aimed at an update id pass through.
func (o *UpdateOverlay) target(id title.ID, recordType title.ContentRecordType) title.ID {
	if !overlays(recordType) || title.IsUpdateID(id) {
		return id
	}
	if updateID := title.UpdateID(id); o.backing.HasEntry(updateID, recordType) {
		return updateID
	}
	return id
}

func (o *UpdateOverlay) HasEntry(id title.ID, recordType title.ContentRecordType) bool {
	return o.backing.HasEntry(o.target(id, recordType), recordType)
}

func (o *UpdateOverlay) GetEntry(id title.ID, recordType title.ContentRecordType) (vfs.File, error) {
	return o.backing.GetEntry(o.target(id, recordType), recordType)
}

func (o *UpdateOverlay) GetEntryUnparsed(id title.ID, recordType title.ContentRecordType) (vfs.File, error) {
	return o.backing.GetEntryUnparsed(o.target(id, recordType), recordType)
}

// GetEntryVersion reports the update's version when an update is
// installed, since that is what resolution will serve.
func (o *UpdateOverlay) GetEntryVersion(id title.ID) (title.Version, bool) {
	if !title.IsUpdateID(id) {
		if version, ok := o.backing.GetEntryVersion(title.UpdateID(id)); ok {
			return version, true
		}
	}
	return o.backing.GetEntryVersion(id)
}

func (o *UpdateOverlay) List(filter Filter) []Entry {
	return o.backing.List(filter)
}
