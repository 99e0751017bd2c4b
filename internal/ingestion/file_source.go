package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"mev-inspector/internal/domain"
)

// blockFile is the on-disk layout of <dir>/<number>.json.
// Timestamp is unix seconds; zero means unknown.
type blockFile struct {
	BlockNumber uint64                     `json:"block_number"`
	Timestamp   int64                      `json:"block_timestamp"`
	Traces      []*domain.DecodedCallTrace `json:"traces"`
}

// FileSource reads decoded traces from one JSON file per block.
type FileSource struct {
	dir     string
	headers HeaderReader
	logger  *zap.SugaredLogger
}

// FileSourceOptions contains configuration for creating a FileSource.
type FileSourceOptions struct {
	// Headers fills timestamps missing from the file. Optional.
	Headers HeaderReader
	Logger  *zap.SugaredLogger
}

// NewFileSource creates a FileSource rooted at dir.
func NewFileSource(dir string, opts FileSourceOptions) *FileSource {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &FileSource{dir: dir, headers: opts.Headers, logger: logger}
}

// Path returns the file holding the given block.
func (s *FileSource) Path(number uint64) string {
	return filepath.Join(s.dir, strconv.FormatUint(number, 10)+".json")
}

// Block implements TraceSource.
func (s *FileSource) Block(ctx context.Context, number uint64) (*domain.Block, error) {
	f, err := os.Open(s.Path(number))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("block %d: %w", number, ErrBlockNotFound)
		}
		return nil, fmt.Errorf("open block %d: %w", number, err)
	}
	defer f.Close()

	block, err := DecodeBlock(f)
	if err != nil {
		return nil, fmt.Errorf("decode block %d: %w", number, err)
	}
	if block.Number != number {
		return nil, fmt.Errorf("block file %d holds block %d", number, block.Number)
	}

	if block.Timestamp.IsZero() && s.headers != nil {
		header, err := s.headers.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
		if err != nil {
			return nil, fmt.Errorf("fetch header %d: %w", number, err)
		}
		block.Timestamp = time.Unix(int64(header.Time), 0).UTC()
	}
	if block.Timestamp.IsZero() {
		s.logger.Warnw("block has no timestamp", "block", number)
	}

	return block, nil
}

// DecodeBlock reads one block document. Numeric inputs are kept as json.Number
// so 256-bit amounts survive decoding.
func DecodeBlock(r io.Reader) (*domain.Block, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw blockFile
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	block := &domain.Block{
		Number: raw.BlockNumber,
		Traces: make([]*domain.DecodedCallTrace, 0, len(raw.Traces)),
	}
	if raw.Timestamp > 0 {
		block.Timestamp = time.Unix(raw.Timestamp, 0).UTC()
	}
	for _, t := range raw.Traces {
		if t == nil {
			continue
		}
		if t.BlockNumber == 0 {
			t.BlockNumber = raw.BlockNumber
		}
		if t.BlockNumber != raw.BlockNumber {
			return nil, fmt.Errorf("trace %s in block %d claims block %d", t.TransactionHash.Hex(), raw.BlockNumber, t.BlockNumber)
		}
		block.Traces = append(block.Traces, t)
	}
	SortTraces(block.Traces)

	return block, nil
}
