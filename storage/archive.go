package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/dart-tournament/models"
)

const archiveContentType = "application/json"

// BracketArchiver writes the final bracket of a tournament to object storage as JSON.
type BracketArchiver struct {
	uploader FileUploader
	logger   *slog.Logger
}

func NewBracketArchiver(uploader FileUploader, logger *slog.Logger) *BracketArchiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &BracketArchiver{uploader: uploader, logger: logger}
}

// ArchiveKey is the object key of the final bracket of a tournament.
func ArchiveKey(tournamentID int) string {
	return fmt.Sprintf("tournaments/%d/bracket.json", tournamentID)
}

func (a *BracketArchiver) Archive(ctx context.Context, bracket *models.Bracket) (string, error) {
	if bracket == nil || bracket.Tournament == nil {
		return "", errors.New("bracket without tournament cannot be archived")
	}
	body, err := json.Marshal(bracket)
	if err != nil {
		return "", fmt.Errorf("failed to encode bracket %d: %w", bracket.Tournament.ID, err)
	}

	key := ArchiveKey(bracket.Tournament.ID)
	result, err := a.uploader.Upload(ctx, key, archiveContentType, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	a.logger.Debug("bracket uploaded",
		slog.Int("tournament_id", bracket.Tournament.ID),
		slog.String("key", result.Key),
		slog.Int("bytes", len(body)))
	return result.Location, nil
}

// Remove deletes the archived bracket of a tournament. A missing object is not an error.
func (a *BracketArchiver) Remove(ctx context.Context, tournamentID int) error {
	key := ArchiveKey(tournamentID)
	if err := a.uploader.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to remove archive of tournament %d: %w", tournamentID, err)
	}
	a.logger.Debug("bracket archive removed", slog.Int("tournament_id", tournamentID), slog.String("key", key))
	return nil
}
