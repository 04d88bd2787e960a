package fileio

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/atelleria/sessionwatch/logging"
	"github.com/atelleria/sessionwatch/models"
)

// FileRecord is one successfully parsed log line, reduced to the fields the
// windowing engine needs. It is also the unit stored in the file cache.
type FileRecord struct {
	Timestamp    time.Time        `json:"timestamp"`
	SubSessionID string           `json:"sub_session_id"`
	Model        string           `json:"model"`
	IsPrompt     bool             `json:"is_prompt"`
	Tokens       models.TokenStat `json:"tokens"`
}

// rawLine mirrors the external log line format: a timestamp, a conversation
// identifier, a role/type discriminator and an optional nested usage block.
type rawLine struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"sessionId"`
	Message   struct {
		Model string `json:"model"`
		Usage struct {
			InputTokens              int `json:"input_tokens"`
			OutputTokens             int `json:"output_tokens"`
			CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
			CacheReadInputTokens     int `json:"cache_read_input_tokens"`
		} `json:"usage"`
	} `json:"message"`
}

// Scanner discovers and parses event-log files beneath a root directory into
// one timestamp-ascending event stream.
type Scanner struct {
	root  string
	cache *FileCache
}

// NewScanner creates a scanner over the given log root. The cache is
// optional; pass nil to parse every file on every scan.
func NewScanner(root string, cache *FileCache) *Scanner {
	return &Scanner{root: root, cache: cache}
}

// Root returns the log root this scanner reads from.
func (s *Scanner) Root() string {
	return s.root
}

// Scan walks the log root recursively and returns every parseable event,
// sorted by timestamp. A missing root yields an empty stream, not an error:
// no logs yet is a normal state. Malformed or usage-less lines are dropped
// silently so that concurrent writes to live files never abort a scan.
func (s *Scanner) Scan() ([]models.Event, error) {
	files, err := discoverLogFiles(s.root)
	if err != nil {
		return nil, err
	}

	var records []FileRecord
	for _, path := range files {
		recs := s.loadFile(path)
		records = append(records, recs...)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	// Build one running total per subsession; every event of that subsession
	// references the same total so the windowing engine can fold a whole
	// conversation exactly once.
	totals := make(map[string]*models.UsageTotals)
	events := make([]models.Event, 0, len(records))
	for _, rec := range records {
		total, ok := totals[rec.SubSessionID]
		if !ok {
			total = models.NewUsageTotals()
			totals[rec.SubSessionID] = total
		}
		if rec.IsPrompt {
			total.Prompts++
		} else {
			total.Replies++
			total.AddTokens(rec.Model, rec.Tokens)
		}
		events = append(events, models.Event{
			Timestamp:    rec.Timestamp,
			SubSessionID: rec.SubSessionID,
			Model:        rec.Model,
			Totals:       total,
		})
	}

	return events, nil
}

// loadFile returns the parsed records of one file, via the cache when the
// cached size and mtime still match.
func (s *Scanner) loadFile(path string) []FileRecord {
	info, err := os.Stat(path)
	if err != nil {
		return nil // File vanished mid-scan
	}

	if s.cache != nil {
		if recs, ok := s.cache.Get(path, info.Size(), info.ModTime()); ok {
			return recs
		}
	}

	recs, err := parseLogFile(path)
	if err != nil {
		logging.LogDebugf("skipping unreadable log file %s: %v", path, err)
		return nil
	}

	if s.cache != nil {
		if err := s.cache.Put(path, info.Size(), info.ModTime(), recs); err != nil {
			logging.LogDebugf("file cache write failed for %s: %v", path, err)
		}
	}

	return recs
}

// parseLogFile parses every line of one file independently. Lines that fail
// to parse are skipped, never surfaced.
func parseLogFile(path string) ([]FileRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024) // 64KB initial, 1MB max

	var records []FileRecord
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var raw rawLine
		if err := sonic.Unmarshal(line, &raw); err != nil {
			continue // Skip invalid JSON lines
		}
		if rec, ok := convertLine(&raw); ok {
			records = append(records, rec)
		}
	}

	// A truncated trailing line surfaces as a scanner error; the records
	// parsed so far are still good.
	if err := scanner.Err(); err != nil {
		logging.LogDebugf("partial read of %s: %v", path, err)
	}

	return records, nil
}

// convertLine reduces a raw line to a FileRecord. Prompt lines carry the
// prompt delta only; reply lines must carry a usage block to count.
func convertLine(raw *rawLine) (FileRecord, bool) {
	if raw.Timestamp.IsZero() || raw.SessionID == "" {
		return FileRecord{}, false
	}

	switch raw.Type {
	case models.RecordTypeUser:
		return FileRecord{
			Timestamp:    raw.Timestamp,
			SubSessionID: raw.SessionID,
			IsPrompt:     true,
		}, true
	case models.RecordTypeAssistant:
		tokens := models.TokenStat{
			InputTokens:         raw.Message.Usage.InputTokens,
			OutputTokens:        raw.Message.Usage.OutputTokens,
			CacheCreationTokens: raw.Message.Usage.CacheCreationInputTokens,
			CacheReadTokens:     raw.Message.Usage.CacheReadInputTokens,
		}
		if tokens.Total() == 0 {
			return FileRecord{}, false // No usage block, nothing to account
		}
		return FileRecord{
			Timestamp:    raw.Timestamp,
			SubSessionID: raw.SessionID,
			Model:        raw.Message.Model,
			Tokens:       tokens,
		}, true
	default:
		return FileRecord{}, false
	}
}

// discoverLogFiles enumerates all log files beneath root, unbounded depth.
// A missing root is "no data yet", not an error.
func discoverLogFiles(root string) ([]string, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip entries we can't access
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(path), models.LogFileExtension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
