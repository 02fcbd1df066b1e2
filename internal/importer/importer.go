package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wmaslo/testgenerator/internal/bank"
)

// Each line is id;question_text;topic_name;points. The id column is ignored.
const minFields = 4

type Store interface {
	ImportQuestions(ctx context.Context, rows []bank.ImportRow) (int, error)
}

type Result struct {
	Imported int
	Skipped  int
}

// Run reads a catalog from in, writes the accepted rows through store and
// prints a one-line summary to out.
func Run(ctx context.Context, store Store, in io.Reader, out io.Writer, log zerolog.Logger) (Result, error) {
	rows, skipped, err := Parse(in, log)
	if err != nil {
		return Result{}, err
	}

	imported, err := store.ImportQuestions(ctx, rows)
	if err != nil {
		return Result{}, fmt.Errorf("import questions: %w", err)
	}

	result := Result{Imported: imported, Skipped: skipped}
	fmt.Fprintf(out, "%d questions imported, %d rows skipped\n", result.Imported, result.Skipped)
	return result, nil
}

// Parse splits the catalog into rows. Rows with too few fields or an empty
// question or topic are logged and counted as skipped.
func Parse(in io.Reader, log zerolog.Logger) ([]bank.ImportRow, int, error) {
	reader := csv.NewReader(in)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows := make([]bank.ImportRow, 0)
	skipped := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				log.Warn().Err(err).Int("line", parseErr.StartLine).Msg("skipping unreadable row")
				skipped++
				continue
			}
			return nil, 0, err
		}

		line, _ := reader.FieldPos(0)
		if len(record) < minFields {
			log.Warn().Int("line", line).Strs("row", record).Msg("skipping malformed row")
			skipped++
			continue
		}

		text := cleanField(record[1])
		topic := cleanField(record[2])
		if text == "" || topic == "" {
			log.Warn().Int("line", line).Strs("row", record).Msg("skipping incomplete row")
			skipped++
			continue
		}

		rows = append(rows, bank.ImportRow{
			TopicName: topic,
			Text:      text,
			Points:    parsePoints(record[3]),
		})
	}

	return rows, skipped, nil
}

func cleanField(value string) string {
	return strings.Trim(strings.TrimSpace(value), `"`)
}

func parsePoints(raw string) float64 {
	points, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(points) || math.IsInf(points, 0) {
		return bank.DefaultPoints
	}
	return points
}
