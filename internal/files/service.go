// Package files implements the file and output repositories on top of
// the blob store, enforcing per-caller ownership.
package files

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dmitrijs2005/filemill/internal/blobstore"
	"github.com/dmitrijs2005/filemill/internal/common"
	"github.com/dmitrijs2005/filemill/internal/processing"
	"github.com/dmitrijs2005/filemill/internal/session"
)

// Submitter hands a file off for asynchronous processing and waits for
// the result.
type Submitter interface {
	Submit(ctx context.Context, fileURI, contentType, toolName string) (*processing.Message, error)
}

// FileInfo is one repository entry as presented to a caller. Name is
// unqualified for regular users and owner-qualified for admins.
type FileInfo struct {
	Name        string  `json:"name"`
	URI         string  `json:"uri"`
	ContentType string  `json:"contentType"`
	SizeKb      float64 `json:"sizeKb"`
}

// Service gates every operation through the caller's session. Keys are
// always "{ownerID}/{name}"; ownership decisions compare the owner
// segment exactly, never by substring.
type Service struct {
	files     blobstore.Store
	outputs   blobstore.Store
	submitter Submitter
}

func NewService(files, outputs blobstore.Store, submitter Submitter) *Service {
	return &Service{files: files, outputs: outputs, submitter: submitter}
}

// AddFile stores content under the caller's namespace and returns the
// blob URI. Names collide per caller only; overwrite skips the
// collision check and replaces the existing blob.
func (s *Service) AddFile(ctx context.Context, gate *session.Gate, name, contentType string, content []byte, overwrite bool) (string, error) {
	if err := gate.RequireLoggedIn(); err != nil {
		return "", err
	}
	if err := validateName(name); err != nil {
		return "", err
	}
	if len(content) == 0 {
		return "", fmt.Errorf("%w: empty content", common.ErrInvalidArgument)
	}
	if contentType == "" {
		return "", fmt.Errorf("%w: empty content type", common.ErrInvalidArgument)
	}

	key := gate.UserID() + "/" + name
	if !overwrite {
		if _, _, err := s.files.Get(ctx, key); err == nil {
			return "", fmt.Errorf("%w: %q", common.ErrFileAlreadyExists, name)
		} else if !errors.Is(err, common.ErrFileNotFound) {
			return "", err
		}
	}

	return s.files.Put(ctx, key, contentType, content)
}

// GetFile downloads one of the caller's files. Admins address any file
// by its owner-qualified name.
func (s *Service) GetFile(ctx context.Context, gate *session.Gate, name string) ([]byte, string, error) {
	key, err := s.resolve(gate, name)
	if err != nil {
		return nil, "", err
	}
	return s.files.Get(ctx, key)
}

// DeleteFile removes a file. Admins may delete anything; regular users
// only their own.
func (s *Service) DeleteFile(ctx context.Context, gate *session.Gate, name string) error {
	key, err := s.resolve(gate, name)
	if err != nil {
		return err
	}
	deleted, err := s.files.Delete(ctx, key)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: %q", common.ErrFileNotFound, name)
	}
	return nil
}

// FileMetadata lists the repository. Admins see every file under its
// owner-qualified name; regular users see their own files under bare
// names.
func (s *Service) FileMetadata(ctx context.Context, gate *session.Gate) ([]FileInfo, error) {
	if err := gate.RequireLoggedIn(); err != nil {
		return nil, err
	}
	if gate.IsAdmin() {
		return list(ctx, s.files, "", true)
	}
	return list(ctx, s.files, gate.UserID()+"/", false)
}

// Process runs the named tool over one of the caller's files and
// returns the completion carrying the output location.
func (s *Service) Process(ctx context.Context, gate *session.Gate, name, toolName string) (*processing.Message, error) {
	key, err := s.resolve(gate, name)
	if err != nil {
		return nil, err
	}
	_, contentType, err := s.files.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.submitter.Submit(ctx, s.files.URI(key), contentType, toolName)
}

// OutputMetadata lists the output repository. Admin only.
func (s *Service) OutputMetadata(ctx context.Context, gate *session.Gate) ([]FileInfo, error) {
	if err := gate.RequireAdmin(); err != nil {
		return nil, err
	}
	return list(ctx, s.outputs, "", true)
}

// GetOutput downloads an output blob by its qualified name. Admin only.
func (s *Service) GetOutput(ctx context.Context, gate *session.Gate, name string) ([]byte, string, error) {
	if err := gate.RequireAdmin(); err != nil {
		return nil, "", err
	}
	if err := validateKey(name); err != nil {
		return nil, "", err
	}
	return s.outputs.Get(ctx, name)
}

// DeleteOutput removes an output blob by its qualified name. Admin only.
func (s *Service) DeleteOutput(ctx context.Context, gate *session.Gate, name string) error {
	if err := gate.RequireAdmin(); err != nil {
		return err
	}
	if err := validateKey(name); err != nil {
		return err
	}
	deleted, err := s.outputs.Delete(ctx, name)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: %q", common.ErrFileNotFound, name)
	}
	return nil
}

// resolve maps a caller-facing name to a storage key, performing the
// ownership check for regular users.
func (s *Service) resolve(gate *session.Gate, name string) (string, error) {
	if err := gate.RequireLoggedIn(); err != nil {
		return "", err
	}

	if gate.IsAdmin() {
		// Admins address files by the qualified "{owner}/{name}" form.
		if err := validateKey(name); err != nil {
			return "", err
		}
		return name, nil
	}

	if strings.Contains(name, "/") {
		owner, rest, _ := strings.Cut(name, "/")
		if owner != gate.UserID() {
			return "", fmt.Errorf("%w: %q", common.ErrNotOwned, name)
		}
		if err := validateName(rest); err != nil {
			return "", err
		}
		return name, nil
	}

	if err := validateName(name); err != nil {
		return "", err
	}
	return gate.UserID() + "/" + name, nil
}

func list(ctx context.Context, store blobstore.Store, prefix string, qualified bool) ([]FileInfo, error) {
	blobs, err := store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	infos := make([]FileInfo, 0, len(blobs))
	for _, b := range blobs {
		name := b.Key
		if !qualified {
			if _, rest, found := strings.Cut(b.Key, "/"); found {
				name = rest
			}
		}
		infos = append(infos, FileInfo{
			Name:        name,
			URI:         b.URI,
			ContentType: b.ContentType,
			SizeKb:      roundKb(b.SizeBytes),
		})
	}
	return infos, nil
}

// roundKb converts bytes to kilobytes rounded to two decimal places.
func roundKb(bytes int64) float64 {
	return math.Round(float64(bytes)/1024*100) / 100
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty file name", common.ErrInvalidArgument)
	}
	if strings.ContainsAny(name, "/,") {
		return fmt.Errorf("%w: file name %q contains reserved characters", common.ErrInvalidArgument, name)
	}
	return nil
}

// validateKey checks a qualified "{owner}/{name}" reference.
func validateKey(key string) error {
	owner, name, found := strings.Cut(key, "/")
	if !found || owner == "" {
		return fmt.Errorf("%w: expected owner-qualified name, got %q", common.ErrInvalidArgument, key)
	}
	return validateName(name)
}
