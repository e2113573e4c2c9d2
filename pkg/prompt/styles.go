package prompt

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Styles controls how the runner decorates its output.
type Styles struct {
	Header  lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Box     lipgloss.Style
}

// DefaultStyles returns the standard palette.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF")),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")),
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")),
		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3FB950")),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1),
	}
}

// PlainStyles renders text without decoration; tests and non-terminals use
// it.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{Header: plain, Muted: plain, Error: plain, Success: plain, Box: plain}
}

// Notifier prints submission outcomes and navigation targets. It satisfies
// submission.Notifier and submission.Navigator.
type Notifier struct {
	mu     sync.Mutex
	out    io.Writer
	styles Styles
	route  string
}

// NewNotifier writes to out (stdout when nil).
func NewNotifier(out io.Writer, styles Styles) *Notifier {
	if out == nil {
		out = os.Stdout
	}
	return &Notifier{out: out, styles: styles}
}

// Success prints a success toast.
func (n *Notifier) Success(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.out, n.styles.Success.Render("✓ "+message))
}

// Failure prints a failure toast.
func (n *Notifier) Failure(reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.out, n.styles.Error.Render("✗ "+reason))
}

// Navigate records the next route and tells the user where to go.
func (n *Notifier) Navigate(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.route = route
	fmt.Fprintln(n.out, n.styles.Muted.Render("→ "+route))
}

// Route returns the last navigation target.
func (n *Notifier) Route() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.route
}
