// Package fingerprint derives a deterministic digest of an owner's dataset so
// the incremental-sync policy can compare two datasets without reading
// payloads.
//
// The digest covers record ids and modified timestamps only: a payload edit
// that does not bump its timestamp is invisible to the skip decision. The
// per-table max timestamp and counts are folded in so inserts and deletes
// always change the digest.
package fingerprint

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/quillnotes/notesync/internal/hashx"
	"github.com/quillnotes/notesync/internal/logging"
	"github.com/quillnotes/notesync/internal/repositories/categories"
	"github.com/quillnotes/notesync/internal/repositories/links"
	"github.com/quillnotes/notesync/internal/repositories/notes"
)

// Service computes dataset fingerprints.
type Service struct {
	notes      notes.Repository
	categories categories.Repository
	links      links.Repository
	log        logging.Logger
}

func NewService(n notes.Repository, c categories.Repository, l links.Repository, log logging.Logger) *Service {
	return &Service{notes: n, categories: c, links: l, log: log}
}

type idStamp struct {
	id         string
	modifiedAt int64
}

// Compute returns the fingerprint of the owner's current dataset. Two
// datasets produce the same fingerprint iff their id/modified-at composition
// is identical.
//
// On a read failure the returned fingerprint is seeded by the current time,
// so any comparison against a stored value reads as "changed" and the caller
// falls through to a full sync rather than skipping one.
func (s *Service) Compute(ctx context.Context, ownerID string) string {
	var b strings.Builder

	ns, err := s.notes.ListByOwner(ctx, ownerID)
	if err != nil {
		return s.failOpen(ctx, ownerID, err)
	}
	stamps := make([]idStamp, 0, len(ns))
	for _, n := range ns {
		stamps = append(stamps, idStamp{n.ID, n.ModifiedAt})
	}
	writeTable(&b, "notes", stamps)

	cs, err := s.categories.ListByOwner(ctx, ownerID)
	if err != nil {
		return s.failOpen(ctx, ownerID, err)
	}
	stamps = stamps[:0]
	for _, c := range cs {
		stamps = append(stamps, idStamp{c.ID, c.ModifiedAt})
	}
	writeTable(&b, "categories", stamps)

	ls, err := s.links.ListByOwner(ctx, ownerID)
	if err != nil {
		return s.failOpen(ctx, ownerID, err)
	}
	stamps = stamps[:0]
	for _, l := range ls {
		stamps = append(stamps, idStamp{l.ID, l.ModifiedAt})
	}
	writeTable(&b, "links", stamps)

	return hashx.Sum([]byte(b.String()))
}

// writeTable appends the table's sorted id:modifiedAt pairs, count and max
// timestamp to b.
func writeTable(b *strings.Builder, table string, stamps []idStamp) {
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].id < stamps[j].id })

	var maxModified int64
	b.WriteString(table)
	b.WriteByte('[')
	for _, st := range stamps {
		fmt.Fprintf(b, "%s:%d;", st.id, st.modifiedAt)
		if st.modifiedAt > maxModified {
			maxModified = st.modifiedAt
		}
	}
	fmt.Fprintf(b, "]n=%d,max=%d|", len(stamps), maxModified)
}

// failOpen returns a fingerprint no stored value can equal.
func (s *Service) failOpen(ctx context.Context, ownerID string, err error) string {
	s.log.Error(ctx, "fingerprint computation failed, forcing sync",
		"owner_id", ownerID, "error", err)
	seed := fmt.Sprintf("fingerprint-error:%s:%d", ownerID, time.Now().UnixNano())
	return hashx.Sum([]byte(seed))
}
