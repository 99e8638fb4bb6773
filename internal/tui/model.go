package tui

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docqa/internal/domain"
	"docqa/internal/usecase"
)

// AskPort is the TUI-facing subset of the retrieval session.
type AskPort interface {
	Build(req usecase.BuildRequest) (usecase.BuildResult, error)
	Ask(query string, topK int) (usecase.Answer, error)
	Clear()
	Ready() bool
	Len() int
}

type answerMsg struct {
	query  string
	answer usecase.Answer
	err    error
}

type buildMsg struct {
	result usecase.BuildResult
	err    error
}

// Model is the Bubble Tea model for interactive question answering.
type Model struct {
	session   AskPort
	request   *usecase.BuildRequest
	topK      int
	input     textinput.Model
	viewport  viewport.Model
	answer    string
	hits      []domain.ScoredChunk
	status    string
	cursor    int
	ready     bool
	busy      bool
	lastQuery string
}

// New creates a chat model. request is replayed by /rebuild; it may be nil
// when the session was built elsewhere.
func New(session AskPort, request *usecase.BuildRequest, topK int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question, or /rebuild /clear /quit"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)

	status := "No document indexed. Start with -f or -t."
	if session.Ready() {
		status = fmt.Sprintf("Indexed %d chunks. Ask away.", session.Len())
	}

	return Model{
		session:  session,
		request:  request,
		topK:     topK,
		input:    ti,
		viewport: vp,
		status:   status,
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, hint, status, spacer
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil

	case answerMsg:
		m.busy = false
		m.lastQuery = msg.query
		m.cursor = 0
		m.hits = msg.answer.Hits
		m.answer = msg.answer.Text
		switch {
		case errors.Is(msg.err, domain.ErrGenerationService):
			m.status = "Generation failed: " + msg.err.Error()
		case msg.err != nil:
			m.status = "Error: " + msg.err.Error()
			m.answer = ""
		case m.answer == "":
			m.status = "The model returned no answer."
		default:
			m.status = fmt.Sprintf("Answered from %d contexts.", len(m.hits))
		}
		m.viewport.SetContent(m.renderAnswer())
		return m, nil

	case buildMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Build failed: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("Indexed %d chunks (dim %d) in %s.", msg.result.Chunks, msg.result.Dimension, msg.result.Duration.Round(time.Millisecond))
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			return m.submit()
		case "down":
			if len(m.hits) > 0 {
				m.cursor = (m.cursor + 1) % len(m.hits)
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		case "up":
			if len(m.hits) > 0 {
				m.cursor = (m.cursor - 1 + len(m.hits)) % len(m.hits)
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" || m.busy {
		return m, nil
	}
	m.input.SetValue("")

	switch line {
	case "/quit":
		return m, tea.Quit
	case "/clear":
		m.session.Clear()
		m.hits, m.answer = nil, ""
		m.status = "Index cleared."
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case "/rebuild":
		if m.request == nil {
			m.status = "Nothing to rebuild from."
			return m, nil
		}
		m.busy = true
		m.status = "Rebuilding index..."
		session, req := m.session, *m.request
		return m, func() tea.Msg {
			res, err := session.Build(req)
			return buildMsg{result: res, err: err}
		}
	}

	if !m.session.Ready() {
		m.status = "Please index a document first."
		return m, nil
	}

	m.busy = true
	m.status = fmt.Sprintf("Thinking about %q...", line)
	session, topK := m.session, m.topK
	return m, func() tea.Msg {
		ans, err := session.Ask(line, topK)
		return answerMsg{query: line, answer: ans, err: err}
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("docqa")
	hint := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("enter: ask  up/down: browse contexts  /rebuild /clear /quit")
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + hint + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderAnswer() string {
	if m.answer == "" && len(m.hits) == 0 {
		return "No answer yet."
	}

	var sb strings.Builder
	sb.WriteString(answerStyle.Render(m.answer))
	if len(m.hits) == 0 {
		return sb.String()
	}

	h := m.hits[m.cursor]
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Context %d/%d  chunk=%d  score=%.3f", m.cursor+1, len(m.hits), h.Chunk.Index, h.Score))
	sb.WriteString("\n\n")
	sb.WriteString(highlightBestSentence(h.Chunk.Text, m.lastQuery))
	return sb.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	answerStyle    = lipgloss.NewStyle().Bold(true)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceEndRe  = regexp.MustCompile(`[.!?]+\s+`)
)

// highlightBestSentence emphasizes the sentence sharing the most words with query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := splitSentences(text)
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

// splitSentences cuts text after terminal punctuation followed by whitespace.
// The unterminated tail of a word window is kept as the last sentence.
func splitSentences(text string) []string {
	var out []string
	last := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[last:loc[1]]); s != "" {
			out = append(out, s)
		}
		last = loc[1]
	}
	if s := strings.TrimSpace(text[last:]); s != "" {
		out = append(out, s)
	}
	return out
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
