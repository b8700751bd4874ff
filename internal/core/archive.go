package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	blobcore "vitalcore/internal/blob/core"
	"vitalcore/pkg/domain"
)

// ErrNoBlobStore is returned by ArchiveExperiment when no blob store is configured.
var ErrNoBlobStore = errors.New("no blob store configured")

// ExperimentArchive is the JSON document written for a completed experiment.
type ExperimentArchive struct {
	Instance      domain.ExperimentInstance `json:"instance"`
	TemplateTitle string                    `json:"template_title"`
	Insight       string                    `json:"insight"`
	ArchivedAt    time.Time                 `json:"archived_at"`
}

// ArchiveKey returns the blob key used for an instance archive.
func ArchiveKey(userID, instanceID string) string {
	return path.Join(archivePrefix(userID), instanceID+".json")
}

func archivePrefix(userID string) string {
	return path.Join("archives", userID) + "/"
}

// scopedArchiveKey builds the archive key for (userID, id) and rejects ids that
// would resolve outside the user's own prefix.
func scopedArchiveKey(userID, id string) (string, error) {
	if err := checkKeySegment("user_id", userID); err != nil {
		return "", err
	}
	if err := checkKeySegment("id", id); err != nil {
		return "", err
	}
	key := ArchiveKey(userID, id)
	if !strings.HasPrefix(key, archivePrefix(userID)) {
		return "", domain.Validation(domain.EntityArchive, "id", "resolves outside the user's archives")
	}
	return key, nil
}

func checkKeySegment(field, v string) error {
	switch {
	case v == "":
		return domain.Validation(domain.EntityArchive, field, "is required")
	case v == "." || v == "..":
		return domain.Validation(domain.EntityArchive, field, "is not a valid name")
	case strings.ContainsAny(v, "/\\"):
		return domain.Validation(domain.EntityArchive, field, "must not contain path separators")
	}
	return nil
}

// ArchiveInstanceID extracts the instance id from an archive key.
func ArchiveInstanceID(key string) string {
	return strings.TrimSuffix(path.Base(key), ".json")
}

// ArchiveExperiment writes a JSON archive of a completed instance to the blob
// store, replacing any earlier archive of the same instance.
func (s *Service) ArchiveExperiment(ctx context.Context, userID, id string) (blobcore.Object, error) {
	var info blobcore.Object
	err := s.run(ctx, "experiment.archive", func() (domain.Result, error) {
		if s.blobs == nil {
			return domain.Result{}, ErrNoBlobStore
		}
		key, err := scopedArchiveKey(userID, id)
		if err != nil {
			return domain.Result{}, err
		}
		view, err := s.loadView(ctx, userID, id)
		if err != nil {
			return domain.Result{}, err
		}
		if view.Instance.Status != domain.StatusCompleted {
			return domain.Result{}, domain.InvalidState(domain.EntityInstance, id, "only completed experiments can be archived")
		}
		doc := ExperimentArchive{
			Instance:      view.Instance,
			TemplateTitle: view.Template.Title,
			Insight:       s.insight.Insight(ctx, insightRequest(view, s.today())),
			ArchivedAt:    s.now(),
		}
		payload, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return domain.Result{}, fmt.Errorf("encode archive: %w", err)
		}
		info, err = s.blobs.Put(ctx, key, bytes.NewReader(payload), blobcore.PutOptions{
			ContentType: "application/json",
			Metadata: map[string]string{
				"user":     userID,
				"template": view.Instance.TemplateID,
			},
		})
		if err != nil {
			return domain.Result{}, fmt.Errorf("put archive: %w", err)
		}
		return domain.Result{}, nil
	})
	if err != nil {
		return blobcore.Object{}, err
	}
	return info, nil
}

// ListArchives returns the user's archived experiments ordered by key.
func (s *Service) ListArchives(ctx context.Context, userID string) ([]blobcore.Object, error) {
	var out []blobcore.Object
	err := s.run(ctx, "archive.list", func() (domain.Result, error) {
		if s.blobs == nil {
			return domain.Result{}, ErrNoBlobStore
		}
		if err := checkKeySegment("user_id", userID); err != nil {
			return domain.Result{}, err
		}
		objs, err := s.blobs.List(ctx, archivePrefix(userID))
		if err != nil {
			return domain.Result{}, fmt.Errorf("list archives: %w", err)
		}
		out = objs
		return domain.Result{}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadArchive loads the archive document a user wrote for an instance.
func (s *Service) ReadArchive(ctx context.Context, userID, id string) (ExperimentArchive, error) {
	var doc ExperimentArchive
	err := s.run(ctx, "archive.read", func() (domain.Result, error) {
		if s.blobs == nil {
			return domain.Result{}, ErrNoBlobStore
		}
		key, err := scopedArchiveKey(userID, id)
		if err != nil {
			return domain.Result{}, err
		}
		_, rc, err := s.blobs.Get(ctx, key)
		if errors.Is(err, blobcore.ErrNotFound) {
			return domain.Result{}, domain.NotFound(domain.EntityArchive, id)
		}
		if err != nil {
			return domain.Result{}, fmt.Errorf("read archive: %w", err)
		}
		defer func() { _ = rc.Close() }()
		if err := json.NewDecoder(rc).Decode(&doc); err != nil {
			return domain.Result{}, fmt.Errorf("decode archive %s: %w", id, err)
		}
		if doc.Instance.UserID != userID || doc.Instance.ID != id {
			doc = ExperimentArchive{}
			return domain.Result{}, domain.NotFound(domain.EntityArchive, id)
		}
		return domain.Result{}, nil
	})
	if err != nil {
		return ExperimentArchive{}, err
	}
	return doc, nil
}
