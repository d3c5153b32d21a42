package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkNewRecord  BookmarkType = "new_record"
	BookmarkChampion   BookmarkType = "champion"
	BookmarkStagnation BookmarkType = "stagnation"
	BookmarkCollapse   BookmarkType = "collapse"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Generation  int          `csv:"generation"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"generation", b.Generation,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting generations in a run.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []GenerationStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	bestScore          int
	bestFitness        float64
	sinceImprovement   int  // generations since best fitness improved
	stagnationReported bool // fire once per plateau
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3 // minimum for a rolling average
	}
	return &BookmarkDetector{
		history:     make([]GenerationStats, historySize),
		historySize: historySize,
		bestScore:   -1,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats GenerationStats) []Bookmark {
	var bookmarks []Bookmark

	// New record: best score so far in the run
	if b := bd.checkNewRecord(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	// Champion: success threshold reached
	if stats.Outcome == "champion" {
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkChampion,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("Champion %d reached score %d", stats.BestID, stats.Score),
		})
	}

	if bd.historyFull || bd.historyIdx > 0 {
		// Collapse: mean fitness below half the rolling average
		if b := bd.checkCollapse(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	// Stagnation: best fitness flat for a full history window
	if b := bd.checkStagnation(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	// Update history
	bd.addToHistory(stats)

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats GenerationStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []GenerationStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkNewRecord(stats GenerationStats) *Bookmark {
	if stats.Score <= bd.bestScore {
		return nil
	}
	old := bd.bestScore
	bd.bestScore = stats.Score
	if old < 0 || stats.Score == 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkNewRecord,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("Score %d beats previous best %d", stats.Score, old),
	}
}

func (bd *BookmarkDetector) checkCollapse(stats GenerationStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.FitnessMean
	}
	avg := total / float64(len(history))
	if avg <= 0 {
		return nil
	}

	if stats.FitnessMean < avg*0.5 {
		return &Bookmark{
			Type:        BookmarkCollapse,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("Mean fitness %.2f fell below half the rolling average (%.2f)", stats.FitnessMean, avg),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkStagnation(stats GenerationStats) *Bookmark {
	if stats.FitnessMax > bd.bestFitness {
		bd.bestFitness = stats.FitnessMax
		bd.sinceImprovement = 0
		bd.stagnationReported = false
		return nil
	}

	bd.sinceImprovement++
	if bd.sinceImprovement < bd.historySize || bd.stagnationReported {
		return nil
	}

	bd.stagnationReported = true
	return &Bookmark{
		Type:        BookmarkStagnation,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("Best fitness %.2f unchanged for %d generations", bd.bestFitness, bd.sinceImprovement),
	}
}
