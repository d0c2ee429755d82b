package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// EnvVar overrides the configured level when set.
const EnvVar = "ITINERARY_LOG"

// InitLogger sets up Apex with a custom handler writing to stderr. The
// ITINERARY_LOG env variable wins over level; an empty result means "info".
func InitLogger(level string) {
	if env := os.Getenv(EnvVar); env != "" {
		level = env
	}
	if level == "" {
		level = "info"
	}
	log.SetHandler(NewHandler(os.Stderr))
	if err := SetLevel(level); err != nil {
		log.SetLevel(log.InfoLevel)
		log.WithError(err).Warn("falling back to info level")
	}
}

// SetLevel changes the level of the default logger.
func SetLevel(level string) error {
	l, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("parsing log level %q: %w", level, err)
	}
	log.SetLevel(l)
	return nil
}

// CustomHandler formats one line per entry: timestamp, level initial,
// message and the sorted fields.
type CustomHandler struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewHandler returns a CustomHandler writing to w.
func NewHandler(w io.Writer) *CustomHandler {
	return &CustomHandler{out: w, now: time.Now}
}

// HandleLog implements the log.Handler interface
func (h *CustomHandler) HandleLog(e *log.Entry) error {
	timestamp := h.now().Format("2006-01-02 15:04:05")
	level := strings.ToUpper(e.Level.String())

	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", timestamp, level, e.Message)

	names := e.Fields.Names()
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, " %s=%v", name, e.Fields.Get(name))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}
