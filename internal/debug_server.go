// Package internal hosts the operator-facing debug server: a read-only
// view over the Badger store plus live process statistics.
package internal

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/shirou/gopsutil/process"
	"github.com/vmihailenco/msgpack/v5"
)

//go:embed inspect.html
var templatesFS embed.FS

type InspectRow struct {
	Key       string
	Type      string
	Timestamp string
	EntityID  string
	Namespace string
	Detail    string
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() map[string]any

type PageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

// StartDebugServer serves /inspect on its own port, prefix-scanning the
// store and rendering one row per key through the mapper. Listens on all
// interfaces so an operator can reach it over the network.
func StartDebugServer(db *badger.DB, port int, mapper RowMapper, statsProvider StatsProvider) {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	if mapper == nil {
		mapper = DefaultMapper
	}

	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "msg:"
		}

		data := PageData{
			Prefix: prefix,
			Stats:  ProcessStats(),
		}
		if statsProvider != nil {
			for k, v := range statsProvider() {
				data.Stats[k] = v
			}
		}

		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapper(string(item.Key()), val))
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	go func() {
		_ = http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", port), mux)
	}()
}

// ProcessStats reports RSS, CPU, and goroutine counts for the dashboard.
func ProcessStats() map[string]any {
	stats := map[string]any{
		"Goroutines": runtime.NumGoroutine(),
		"Time":       time.Now().Format(time.RFC822),
	}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err == nil {
		if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
			stats["RSS"] = fmt.Sprintf("%d MB", mem.RSS/1024/1024)
		}
		if cpu, err := proc.CPUPercent(); err == nil {
			stats["CPU"] = fmt.Sprintf("%.1f%%", cpu)
		}
	}
	return stats
}

// DefaultMapper decodes message keys ("msg:{conv}:{ts}:{id}") and falls
// back to raw sizing for everything else.
func DefaultMapper(key string, val []byte) InspectRow {
	parts := strings.Split(key, ":")
	row := InspectRow{
		Key:       key,
		Type:      "RAW",
		Timestamp: "--:--:--",
		EntityID:  "--------",
		Namespace: "default",
		Detail:    "Size: " + strconv.Itoa(len(val)) + " bytes",
	}

	if len(parts) >= 4 && parts[0] == "msg" {
		row.Type = "MESSAGE"
		row.Namespace = parts[1]
		if tsNano, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
			row.Timestamp = time.Unix(0, tsNano).Format("15:04:05")
		}
		row.EntityID = parts[3]
		if len(row.EntityID) > 8 {
			row.EntityID = row.EntityID[:8]
		}

		var record struct {
			SenderID string
			Text     string
			ReadBy   []string
		}
		if err := msgpack.Unmarshal(val, &record); err == nil {
			row.Detail = fmt.Sprintf("%s: %s (read by %d)",
				record.SenderID, record.Text, len(record.ReadBy))
		}
	}
	return row
}
