package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CollectionWriter is the storage surface the importer writes through.
// *cards.SQLiteRepository satisfies it.
type CollectionWriter interface {
	CreateCollection(ctx context.Context, localRef, name string, createdAt int64) error
	UpsertCard(ctx context.Context, localRef, guid string, fields map[string]string, tags []string) error
}

// packageManifest is the collection document inside a deck package.
type packageManifest struct {
	Name  string `json:"name"`
	Cards []struct {
		GUID   string            `json:"guid"`
		Fields map[string]string `json:"fields"`
		Tags   []string          `json:"tags"`
	} `json:"cards"`
}

// ZipImporter is the reference PackageImporter. It accepts either a zip
// archive containing a collection manifest (any top-level *.json entry) or
// the bare manifest JSON, and writes the cards into a fresh collection.
type ZipImporter struct {
	writer CollectionWriter
	now    func() time.Time
}

func NewZipImporter(writer CollectionWriter) *ZipImporter {
	return &ZipImporter{writer: writer, now: time.Now}
}

func (i *ZipImporter) Import(ctx context.Context, pkg []byte, name string) (string, error) {
	manifest, err := readManifest(pkg)
	if err != nil {
		return "", fmt.Errorf("import package: %w", err)
	}

	title := manifest.Name
	if title == "" {
		title = name
	}

	localRef := uuid.NewString()
	if err := i.writer.CreateCollection(ctx, localRef, title, i.now().Unix()); err != nil {
		return "", err
	}
	for _, card := range manifest.Cards {
		if card.GUID == "" {
			continue
		}
		if err := i.writer.UpsertCard(ctx, localRef, card.GUID, card.Fields, card.Tags); err != nil {
			return "", err
		}
	}
	return localRef, nil
}

func readManifest(pkg []byte) (*packageManifest, error) {
	if bytes.HasPrefix(pkg, []byte("PK\x03\x04")) {
		return manifestFromZip(pkg)
	}

	var manifest packageManifest
	if err := json.Unmarshal(pkg, &manifest); err != nil {
		return nil, fmt.Errorf("not a zip archive and not a collection manifest: %w", err)
	}
	return &manifest, nil
}

func manifestFromZip(pkg []byte) (*packageManifest, error) {
	reader, err := zip.NewReader(bytes.NewReader(pkg), int64(len(pkg)))
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}

	for _, file := range reader.File {
		if path.Dir(file.Name) != "." || !strings.HasSuffix(file.Name, ".json") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", file.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file.Name, err)
		}

		var manifest packageManifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", file.Name, err)
		}
		return &manifest, nil
	}
	return nil, fmt.Errorf("archive has no collection manifest")
}
