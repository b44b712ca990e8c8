package views

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/AdamBeresnev/ultimate-tournaments/internal/bracket"
	"github.com/a-h/templ"
	"github.com/google/uuid"
)

func page(title string, body func(b *strings.Builder)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		fmt.Fprintf(&b, `<title>%s</title><link rel="stylesheet" href="/static/app.css"></head><body>`, html.EscapeString(title))

		if user := GetUser(ctx); user != nil {
			fmt.Fprintf(&b, `<nav><a href="/">Tournaments</a><span class="user">%s (%s)</span>`,
				html.EscapeString(user.Username), html.EscapeString(string(user.Role)))
			b.WriteString(`<form method="post" action="/logout"><button type="submit">Log out</button></form></nav>`)
		}

		b.WriteString(`<main>`)
		body(&b)
		b.WriteString(`</main></body></html>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// LoginPage offers the OAuth providers and, when enabled, the guest account.
func LoginPage(guest bool) templ.Component {
	return page("Log in", func(b *strings.Builder) {
		b.WriteString(`<h1>Ultimate Tournaments</h1><div class="login">`)
		b.WriteString(`<a class="button" href="/auth/discord">Log in with Discord</a>`)
		b.WriteString(`<a class="button" href="/auth/google">Log in with Google</a>`)
		if guest {
			b.WriteString(`<form method="post" action="/auth/guest"><button type="submit">Continue as guest</button></form>`)
		}
		b.WriteString(`</div>`)
	})
}

func Index(tournaments []bracket.Tournament) templ.Component {
	return page("Tournaments", func(b *strings.Builder) {
		b.WriteString(`<h1>Your tournaments</h1>`)
		if len(tournaments) == 0 {
			b.WriteString(`<p class="empty">No tournaments yet.</p>`)
			return
		}
		b.WriteString(`<ul class="tournaments">`)
		for _, t := range tournaments {
			fmt.Fprintf(b, `<li><a href="/tournaments/%s">%s</a> <span class="format">%s</span></li>`,
				t.ID, html.EscapeString(t.Name), html.EscapeString(string(t.Format)))
		}
		b.WriteString(`</ul>`)
	})
}

func TournamentView(tournament *bracket.Tournament, data BracketData, nextMatchID *uuid.UUID) templ.Component {
	return page(tournament.Name, func(b *strings.Builder) {
		fmt.Fprintf(b, `<h1>%s</h1>`, html.EscapeString(tournament.Name))
		if nextMatchID != nil {
			fmt.Fprintf(b, `<p><a class="button" href="/matches/%s">Next match</a></p>`, *nextMatchID)
		}
		if len(data.Sections) == 0 {
			b.WriteString(`<p class="empty">The schedule has not been built yet.</p>`)
			return
		}

		for _, s := range data.Sections {
			fmt.Fprintf(b, `<section class="phase phase-%s"><h2>%s</h2><div class="rounds">`,
				html.EscapeString(string(s.Phase)), html.EscapeString(s.Title))
			for _, r := range s.RoundNums {
				matches := s.Rounds[r]
				fmt.Fprintf(b, `<div class="round"><h3>%s</h3>`, html.EscapeString(matches[0].RoundName))
				for _, m := range matches {
					writeMatchCard(b, data, m)
				}
				b.WriteString(`</div>`)
			}
			b.WriteString(`</div></section>`)
		}
	})
}

func writeMatchCard(b *strings.Builder, data BracketData, m bracket.Match) {
	fmt.Fprintf(b, `<a class="match status-%s" href="/matches/%s"><span class="number">#%d</span>`,
		m.Status, m.ID, m.MatchNumber)
	for _, slot := range []bracket.Slot{bracket.SlotA, bracket.SlotB} {
		class := "team"
		if m.IsWinner(slot) {
			class += " winner"
		}
		name := data.TeamName(m.Team(slot))
		if m.IsBye && m.Team(slot) == nil {
			name = "Bye"
		}
		score := m.ScoreA
		if slot == bracket.SlotB {
			score = m.ScoreB
		}
		fmt.Fprintf(b, `<div class="%s"><span class="name">%s</span><span class="score">%d</span></div>`,
			class, html.EscapeString(name), score)
	}
	b.WriteString(`</a>`)
}

func MatchView(match *bracket.Match, teamA, teamB *bracket.Team, attendance []bracket.AttendanceRecord, nextMatchID *uuid.UUID) templ.Component {
	data := BracketData{TeamMap: map[uuid.UUID]bracket.Team{}}
	for _, t := range []*bracket.Team{teamA, teamB} {
		if t != nil {
			data.TeamMap[t.ID] = *t
		}
	}

	return page(match.RoundName, func(b *strings.Builder) {
		fmt.Fprintf(b, `<h1>%s</h1><p class="status">%s</p>`, html.EscapeString(match.RoundName), match.Status)
		writeMatchCard(b, data, *match)
		if nextMatchID != nil {
			fmt.Fprintf(b, `<p>Winner plays on in <a href="/matches/%s">the next match</a></p>`, *nextMatchID)
		}
		fmt.Fprintf(b, `<p><a href="/tournaments/%s">Back to tournament</a></p>`, match.TournamentID)

		present := 0
		for _, a := range attendance {
			if a.Status == bracket.AttendancePresent {
				present++
			}
		}
		fmt.Fprintf(b, `<p class="attendance">%d attendance records, %d present</p>`, len(attendance), present)
	})
}
