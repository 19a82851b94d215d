package nexus

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble/v2"

	"github.com/ttpedia/backend/internal/pedia"
)

// Journal keys for the asset-generation state, stored in the same pebble
// database as the cross-reference index (spec.md's open question in
// §4.1 "POST /assets_uploaded": cur_seqnum/cur_bucket_key must be
// journaled atomically with the index or a restart forgets the current
// generation). The leading 0x01 byte keeps these out of the index's own
// 0x80 namespace.
var (
	keyCurSeqnum  = []byte("\x01cur_seqnum")
	keyCurBucket  = []byte("\x01cur_bucket_key")
	keyNextSeqnum = []byte("\x01next_proposed_seqnum")
)

// ShouldPreserveAssets decides whether a /pass1 call must be assigned a
// new sequence number (and so trigger an asset upload). pre is
// cur_assets before the merge, post is the merged result. spec.md
// §4.1 step 3 requires this be exposed as a pluggable predicate.
type ShouldPreserveAssets func(pre, post *pedia.AssetSpec) bool

// AlwaysPreserve is the "current policy" of spec.md §4.1 step 3: every
// /pass1 call gets a new sequence number, whether or not the merge
// changed anything.
func AlwaysPreserve(pre, post *pedia.AssetSpec) bool { return true }

// PreserveOnChange is the production policy spec.md §4.1 step 3
// describes as preferable: assign a sequence number only when the
// merged set differs from the pre-merge set.
func PreserveOnChange(pre, post *pedia.AssetSpec) bool { return !pre.Equal(post) }

// AssetState holds the Nexus's single mutable asset generation (spec.md
// §3 "Asset Generation"), guarded by one mutex held across merge-and-
// respond (spec.md §4.1, §5). cur_seqnum/cur_bucket_key are journaled to
// db on every /assets_uploaded acceptance; next_proposed_seqnum is
// journaled on every issuance, so a restart loses at most the assets of
// an in-flight, not-yet-acknowledged /pass1.
type AssetState struct {
	db *pebble.DB

	mu                 sync.Mutex
	curAssets          *pedia.AssetSpec
	curSeqnum          int
	curBucketKey       string
	nextProposedSeqnum int
	shouldPreserve     ShouldPreserveAssets
}

// NewAssetState loads any journaled state from db and returns a ready
// AssetState. A fresh database starts at cur_seqnum=0, next_proposed_seqnum=1
// per spec.md §3's invariants.
func NewAssetState(db *pebble.DB, shouldPreserve ShouldPreserveAssets) (*AssetState, error) {
	if shouldPreserve == nil {
		shouldPreserve = AlwaysPreserve
	}
	s := &AssetState{
		db:                 db,
		curAssets:          pedia.NewAssetSpec(),
		nextProposedSeqnum: 1,
		shouldPreserve:     shouldPreserve,
	}
	if err := s.loadJournal(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *AssetState) loadJournal() error {
	if seq, ok, err := getInt(s.db, keyCurSeqnum); err != nil {
		return err
	} else if ok {
		s.curSeqnum = seq
	}
	if seq, ok, err := getInt(s.db, keyNextSeqnum); err != nil {
		return err
	} else if ok {
		s.nextProposedSeqnum = seq
	}
	if key, closer, err := s.db.Get(keyCurBucket); err == nil {
		s.curBucketKey = string(key)
		closer.Close()
	} else if err != pebble.ErrNotFound {
		return fmt.Errorf("nexus: load cur_bucket_key: %w", err)
	}
	return nil
}

// MergePass1 implements spec.md §4.1 steps 1-3 under the asset-state
// lock: merge assetsJSON into cur_assets, decide whether a new
// generation must be uploaded, and return the merged specification
// serialized plus the sequence number to preserve (nil if none).
func (s *AssetState) MergePass1(assetsJSON string) (mergedJSON string, preserveSeqnum *int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pre := s.curAssets
	post, err := pre.AddFromSaved(assetsJSON)
	if err != nil {
		return "", nil, err
	}
	s.curAssets = post

	if s.shouldPreserve(pre, post) {
		seq := s.nextProposedSeqnum
		s.nextProposedSeqnum++
		if err := putInt(s.db, keyNextSeqnum, s.nextProposedSeqnum); err != nil {
			return "", nil, err
		}
		preserveSeqnum = &seq
	}

	merged, err := post.Save()
	if err != nil {
		return "", nil, fmt.Errorf("nexus: serialize merged assets: %w", err)
	}
	return merged, preserveSeqnum, nil
}

// RecordAssetsUploaded implements spec.md §4.1 "POST /assets_uploaded":
// last-writer-wins by sequence number. A seqNum not greater than the
// current one is a late acknowledgment for a superseded generation and
// is silently ignored; accepted reports which happened.
func (s *AssetState) RecordAssetsUploaded(seqNum int, bucketKey string) (accepted bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seqNum <= s.curSeqnum {
		return false, nil
	}
	if err := putInt(s.db, keyCurSeqnum, seqNum); err != nil {
		return false, err
	}
	if err := s.db.Set(keyCurBucket, []byte(bucketKey), pebble.Sync); err != nil {
		return false, fmt.Errorf("nexus: journal cur_bucket_key: %w", err)
	}
	s.curSeqnum = seqNum
	s.curBucketKey = bucketKey
	return true, nil
}

// CurBucketKey returns the bucket key of the currently-acknowledged
// generation, and whether any generation has ever been acknowledged
// (cur_seqnum > 0, per spec.md §3's invariant).
func (s *AssetState) CurBucketKey() (key string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.curBucketKey, s.curSeqnum > 0
}

func getInt(db *pebble.DB, key []byte) (int, bool, error) {
	val, closer, err := db.Get(key)
	if err == pebble.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("nexus: read %s: %w", key, err)
	}
	defer closer.Close()
	if len(val) != 8 {
		return 0, false, fmt.Errorf("nexus: corrupt journal entry %s", key)
	}
	return int(binary.BigEndian.Uint64(val)), true, nil
}

func putInt(db *pebble.DB, key []byte, v int) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(v))
	if err := db.Set(key, buf, pebble.Sync); err != nil {
		return fmt.Errorf("nexus: journal %s: %w", key, err)
	}
	return nil
}
