package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"path/filepath"
	"strings"
	"time"

	"nospace/internal/core"
	"nospace/internal/logging"
	"nospace/internal/server/config"
	"nospace/internal/server/database"
	"nospace/internal/server/metrics"
	"nospace/internal/server/storage"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Sentinel errors for the service layer.
var (
	ErrNotFound         = errors.New("analysis not found")
	ErrExpired          = errors.New("analysis has expired")
	ErrPasswordRequired = errors.New("password required")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrInvalidToken     = errors.New("invalid deletion token")
	ErrLogTooLarge      = errors.New("transcript exceeds maximum allowed size")
	ErrEmptyLog         = errors.New("transcript is empty")
	ErrNotTranscript    = errors.New("input is not a cd/ls transcript")
	ErrInvalidRange     = errors.New("invalid size range")
)

// Records is the persistence the service depends on. *database.Repository
// implements it.
type Records interface {
	Create(ctx context.Context, a *database.Analysis) error
	GetByID(ctx context.Context, id string) (*database.Analysis, error)
	GetByHash(ctx context.Context, hash string) (*database.Analysis, error)
	IncrementViewCount(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	GetStats(ctx context.Context) (*database.Stats, error)
}

// AnalysisResult is returned after a transcript is accepted.
type AnalysisResult struct {
	ID            string       `json:"id"`
	InfoURL       string       `json:"info_url"`
	TreeURL       string       `json:"tree_url"`
	DeletionToken string       `json:"deletion_token"`
	ExpiresAt     time.Time    `json:"expires_at"`
	Filename      string       `json:"filename"`
	Size          int64        `json:"size"`
	Report        *core.Report `json:"report"`
}

// AnalysisInfo is returned for metadata queries.
type AnalysisInfo struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	LogSize       int64     `json:"log_size"`
	Commands      int       `json:"commands"`
	Nodes         int       `json:"nodes"`
	TotalSize     int64     `json:"total_size"`
	SmallDirsSum  int64     `json:"small_dirs_sum"`
	DirToFreeSize int64     `json:"dir_to_free_size"`
	Truncated     bool      `json:"truncated"`
	UploadedAt    time.Time `json:"uploaded_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	ViewCount     int       `json:"view_count"`
	HasPassword   bool      `json:"has_password"`
}

// AnalysisService contains the business logic for transcript analyses.
type AnalysisService struct {
	repo  Records
	store storage.Store
	cfg   *config.Config
}

// NewAnalysisService creates a new analysis service.
func NewAnalysisService(repo Records, store storage.Store, cfg *config.Config) *AnalysisService {
	return &AnalysisService{
		repo:  repo,
		store: store,
		cfg:   cfg,
	}
}

// ProcessTranscript handles an incoming transcript:
// validates it, rebuilds the tree, stores the raw text and creates the DB record.
func (s *AnalysisService) ProcessTranscript(ctx context.Context, filename string, data io.Reader, size int64, password string) (*AnalysisResult, error) {
	// 1. Check size limit
	if size > s.cfg.MaxLogSize {
		metrics.RecordRejectedTranscript()
		return nil, ErrLogTooLarge
	}

	// 2. Generate unique ID and deletion token
	analysisID, err := generateSecureToken(16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate analysis ID: %w", err)
	}

	deletionToken, err := generateSecureToken(24)
	if err != nil {
		return nil, fmt.Errorf("failed to generate deletion token: %w", err)
	}
	deletionToken = "del_" + deletionToken

	// 3. Read the transcript while computing its SHA-256 hash. The declared
	//    size can lie, so the read itself is capped as well.
	hasher := sha256.New()
	tee := io.TeeReader(io.LimitReader(data, s.cfg.MaxLogSize+1), hasher)

	var buf bytes.Buffer
	bytesRead, err := io.Copy(&buf, tee)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	if bytesRead > s.cfg.MaxLogSize {
		metrics.RecordRejectedTranscript()
		return nil, ErrLogTooLarge
	}

	logHash := hex.EncodeToString(hasher.Sum(nil))
	text := buf.String()

	// 4. Validate it looks like a transcript
	if err := validateTranscript(text); err != nil {
		metrics.RecordRejectedTranscript()
		return nil, err
	}

	// 5. Rebuild the tree and compute both answers
	start := time.Now()
	ft, reader, err := loadTree(text)
	if err != nil {
		metrics.RecordRejectedTranscript()
		return nil, err
	}
	report, err := core.Analyze(ft, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze transcript: %w", err)
	}
	// Answers are stored as BIGINT; larger totals would read back negative.
	if report.TotalSize > math.MaxInt64 {
		metrics.RecordRejectedTranscript()
		return nil, fmt.Errorf("%w: total size %d exceeds %d", ErrNotTranscript, report.TotalSize, int64(math.MaxInt64))
	}
	metrics.RecordAnalysis(report.Nodes, bytesRead, report.Truncated, time.Since(start))
	if report.Truncated {
		logging.Warn("transcript truncated",
			zap.String("id", analysisID),
			zap.Error(reader.Err()),
		)
	}

	// 6. Check for duplicate hash (log only, don't block)
	existing, _ := s.repo.GetByHash(ctx, logHash)
	if existing != nil {
		logging.Info("duplicate transcript detected",
			zap.String("new_analysis", analysisID),
			zap.String("existing_analysis", existing.ID),
			zap.String("hash", logHash),
		)
	}

	// 7. Store transcript on disk
	storedBytes, err := s.store.Save(analysisID, strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("failed to store transcript: %w", err)
	}

	// 8. Hash password if provided
	var passwordHash *string
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			// Clean up stored file
			s.store.Delete(analysisID)
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		h := string(hash)
		passwordHash = &h
	}

	// 9. Create database record
	now := time.Now().UTC()
	a := &database.Analysis{
		ID:            analysisID,
		Filename:      sanitizeFilename(filename),
		LogSize:       storedBytes,
		LogHash:       logHash,
		CommandCount:  report.Commands,
		NodeCount:     report.Nodes,
		TotalSize:     int64(report.TotalSize),
		SmallDirsSum:  int64(report.SmallDirsSum),
		DirToFreeSize: int64(report.DirToFreeSize),
		Truncated:     report.Truncated,
		UploadedAt:    now,
		ExpiresAt:     now.Add(s.cfg.DefaultExpiry),
		ViewCount:     0,
		PasswordHash:  passwordHash,
		DeletionToken: deletionToken,
		CreatedAt:     now,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		// Clean up stored file on DB failure
		s.store.Delete(analysisID)
		return nil, fmt.Errorf("failed to create analysis record: %w", err)
	}

	logging.Info("transcript analyzed",
		zap.String("id", analysisID),
		zap.String("filename", a.Filename),
		zap.Int64("log_size", bytesRead),
		zap.Int("commands", report.Commands),
		zap.Uint64("total_size", report.TotalSize),
		zap.String("hash", logHash),
	)

	return &AnalysisResult{
		ID:            analysisID,
		InfoURL:       fmt.Sprintf("%s/api/analysis/%s", s.cfg.BaseURL, analysisID),
		TreeURL:       fmt.Sprintf("%s/api/analysis/%s/tree", s.cfg.BaseURL, analysisID),
		DeletionToken: deletionToken,
		ExpiresAt:     a.ExpiresAt,
		Filename:      a.Filename,
		Size:          storedBytes,
		Report:        report,
	}, nil
}

// GetInfo returns the stored answers and metadata for an analysis.
func (s *AnalysisService) GetInfo(ctx context.Context, id string) (*AnalysisInfo, error) {
	a, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	return &AnalysisInfo{
		ID:            a.ID,
		Filename:      a.Filename,
		LogSize:       a.LogSize,
		Commands:      a.CommandCount,
		Nodes:         a.NodeCount,
		TotalSize:     a.TotalSize,
		SmallDirsSum:  a.SmallDirsSum,
		DirToFreeSize: a.DirToFreeSize,
		Truncated:     a.Truncated,
		UploadedAt:    a.UploadedAt,
		ExpiresAt:     a.ExpiresAt,
		ViewCount:     a.ViewCount,
		HasPassword:   a.PasswordHash != nil,
	}, nil
}

// Tree rebuilds the directory tree from the stored transcript and returns
// its text dump.
func (s *AnalysisService) Tree(ctx context.Context, id, password string) (string, error) {
	ft, err := s.rebuild(ctx, id, password)
	if err != nil {
		return "", err
	}
	return ft.String(), nil
}

// Dirs returns every directory whose aggregate size lies in [minSize, maxSize],
// deepest first.
func (s *AnalysisService) Dirs(ctx context.Context, id, password string, minSize, maxSize uint64) ([]core.DirSize, error) {
	if minSize > maxSize {
		return nil, ErrInvalidRange
	}
	ft, err := s.rebuild(ctx, id, password)
	if err != nil {
		return nil, err
	}
	dirs := ft.FilterDirsBySize(func(size uint64) bool {
		return size >= minSize && size <= maxSize
	})
	if dirs == nil {
		dirs = []core.DirSize{}
	}
	return dirs, nil
}

// Transcript validates the password and returns the path of the raw
// transcript on disk together with its original filename.
func (s *AnalysisService) Transcript(ctx context.Context, id, password string) (filePath string, filename string, err error) {
	a, err := s.authorize(ctx, id, password)
	if err != nil {
		return "", "", err
	}

	path, err := s.store.GetPath(id)
	if err != nil {
		return "", "", fmt.Errorf("transcript not found on disk: %w", err)
	}

	s.countView(ctx, id)
	return path, a.Filename, nil
}

// DeleteAnalysis validates the deletion token and removes the analysis.
func (s *AnalysisService) DeleteAnalysis(ctx context.Context, id string, token string) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrAnalysisNotFound) {
			return ErrNotFound
		}
		return err
	}

	if a.DeletionToken != token {
		return ErrInvalidToken
	}

	// Delete file from storage
	if err := s.store.Delete(id); err != nil {
		logging.Error("failed to delete transcript from storage", zap.String("id", id), zap.Error(err))
		// Continue with DB deletion even if file deletion fails
	}

	// Delete record from database
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete analysis record: %w", err)
	}

	logging.Info("analysis deleted", zap.String("id", id), zap.String("filename", a.Filename))
	return nil
}

// GetStats returns aggregate server statistics.
func (s *AnalysisService) GetStats(ctx context.Context) (*database.Stats, error) {
	return s.repo.GetStats(ctx)
}

// --- Helpers ---

// lookup fetches a live analysis.
func (s *AnalysisService) lookup(ctx context.Context, id string) (*database.Analysis, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrAnalysisNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if time.Now().After(a.ExpiresAt) {
		return nil, ErrExpired
	}
	return a, nil
}

// authorize fetches a live analysis and checks its password, if it has one.
func (s *AnalysisService) authorize(ctx context.Context, id, password string) (*database.Analysis, error) {
	a, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	if a.PasswordHash != nil {
		if password == "" {
			return nil, ErrPasswordRequired
		}
		if err := bcrypt.CompareHashAndPassword([]byte(*a.PasswordHash), []byte(password)); err != nil {
			return nil, ErrInvalidPassword
		}
	}
	return a, nil
}

// rebuild re-parses the stored transcript of an authorized analysis.
func (s *AnalysisService) rebuild(ctx context.Context, id, password string) (*core.Filetree, error) {
	if _, err := s.authorize(ctx, id, password); err != nil {
		return nil, err
	}

	text, err := s.store.Load(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}

	ft, _, err := loadTree(text)
	if err != nil {
		return nil, err
	}
	s.countView(ctx, id)
	return ft, nil
}

// loadTree rebuilds the tree of an untrusted transcript. A transcript that
// climbs above the root is rejected rather than crashing the request.
func loadTree(text string) (*core.Filetree, *core.CommandReader, error) {
	ft, reader, err := core.LoadFiletree(text)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrNotTranscript, err)
	}
	return ft, reader, nil
}

// countView increments the view counter; failures are logged, not returned.
func (s *AnalysisService) countView(ctx context.Context, id string) {
	if err := s.repo.IncrementViewCount(ctx, id); err != nil {
		logging.Error("failed to increment view count", zap.String("id", id), zap.Error(err))
	}
}

// generateSecureToken produces a cryptographically secure, URL-safe random string.
func generateSecureToken(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("crypto/rand failure: %w", err)
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}

// validateTranscript rejects empty and binary input, and input whose first
// non-blank line is not a "$" command.
func validateTranscript(text string) error {
	trimmed := strings.TrimLeft(text, "\r\n")
	if strings.TrimSpace(trimmed) == "" {
		return ErrEmptyLog
	}
	if strings.IndexByte(text, 0) >= 0 {
		return fmt.Errorf("%w: contains NUL bytes", ErrNotTranscript)
	}
	if !strings.HasPrefix(trimmed, "$") {
		return fmt.Errorf("%w: first line is not a command", ErrNotTranscript)
	}
	return nil
}

// sanitizeFilename strips directory components and limits length.
func sanitizeFilename(name string) string {
	// Normalize Windows-style backslashes to forward slashes before
	// calling filepath.Base, which is platform-specific.
	name = strings.ReplaceAll(name, "\\", "/")

	// Take only the base name
	name = filepath.Base(name)

	// Limit length
	if len(name) > 255 {
		ext := filepath.Ext(name)
		name = name[:255-len(ext)] + ext
	}

	if name == "" || name == "." || name == "/" {
		name = "transcript.txt"
	}

	return name
}
