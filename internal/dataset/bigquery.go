package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"

	pkgbq "github.com/spinlytics/casino-analytics/pkg/bigquery"
	pkgerrors "github.com/spinlytics/casino-analytics/pkg/errors"
)

// BigQueryCatalog exports the configured events table as CSV so the rest of
// the pipeline consumes the same cached format regardless of catalog kind.
type BigQueryCatalog struct {
	client *pkgbq.Client
}

func NewBigQueryCatalog(client *pkgbq.Client) (*BigQueryCatalog, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client is required")
	}
	return &BigQueryCatalog{client: client}, nil
}

// Resolve derives the dataset version from the table's last-modified time so
// re-exports only happen when the source table changes.
func (c *BigQueryCatalog) Resolve(ctx context.Context, name string) (Entry, error) {
	if name != c.client.Table() {
		return Entry{}, pkgerrors.New(pkgerrors.CodeNotFound, "dataset not served by this catalog").
			WithDetails(map[string]any{"dataset": name})
	}
	modified, err := c.client.TableModified(ctx)
	if err != nil {
		return Entry{}, pkgerrors.Wrap(pkgerrors.CodeDatasetUnavailable, err, "resolving bigquery table").
			WithDetails(map[string]any{"dataset": name})
	}
	return Entry{
		Name:      name,
		Version:   versionFromTime(modified),
		RemoteRef: fmt.Sprintf("bigquery://%s", name),
	}, nil
}

// Download streams the table through a query iterator into CSV.
func (c *BigQueryCatalog) Download(ctx context.Context, entry Entry, dst io.Writer) error {
	it, err := c.client.QueryTable(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDatasetUnavailable, err, "querying bigquery table").
			WithDetails(map[string]any{"dataset": entry.Name})
	}

	w := csv.NewWriter(dst)
	wroteHeader := false
	for {
		var row []bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDatasetUnavailable, err, "reading bigquery rows").
				WithDetails(map[string]any{"dataset": entry.Name})
		}
		if !wroteHeader {
			header := make([]string, 0, len(it.Schema))
			for _, field := range it.Schema {
				header = append(header, field.Name)
			}
			if err := w.Write(header); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDatasetUnavailable, err, "writing csv header")
			}
			wroteHeader = true
		}
		record := make([]string, 0, len(row))
		for _, value := range row {
			record = append(record, formatValue(value))
		}
		if err := w.Write(record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDatasetUnavailable, err, "writing csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDatasetUnavailable, err, "flushing csv output")
	}
	return nil
}

func versionFromTime(t time.Time) string {
	return t.UTC().Format("20060102T150405")
}

func formatValue(value bigquery.Value) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case decimal.Decimal:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
