// Command replay plays a scripted sequence of moves and prints each
// verdict. With -server it drives a running arbiter over HTTP; otherwise
// it uses an in-process session.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/park285/cheese-arbiter/internal/game"
	"github.com/park285/cheese-arbiter/internal/render"
	"github.com/park285/cheese-arbiter/pkg/arbiterclient"
)

var defaultScript = []string{"e2-e4", "e7-e5", "e4-e5"}

type verdict struct {
	ok      bool
	kind    string
	message string
	status  string
}

func main() {
	server := flag.String("server", "", "arbiter base URL; empty plays locally")
	moves := flag.String("moves", strings.Join(defaultScript, ","), "comma separated moves")
	flag.Parse()

	script := splitMoves(*moves)
	var err error
	if *server == "" {
		err = runLocal(script)
	} else {
		err = runRemote(*server, script)
	}
	if err != nil {
		log.Fatalf("replay: %v", err)
	}
}

func splitMoves(s string) []string {
	var out []string
	for _, m := range strings.Split(s, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func runLocal(script []string) error {
	sess := game.NewSession()
	for _, mv := range script {
		res := sess.Accept(mv)
		printVerdict(mv, verdict{ok: res.OK, kind: string(res.Kind), message: res.Message, status: string(res.Status)})
	}
	fmt.Print(render.Text(sess.Board()))
	return nil
}

func runRemote(baseURL string, script []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := arbiterclient.NewClient(baseURL, arbiterclient.WithTimeout(5*time.Second))
	g, err := client.CreateGame(ctx, "white", "black")
	if err != nil {
		return err
	}
	fmt.Printf("game %s\n", g.ID)
	for _, mv := range script {
		res, err := client.Move(ctx, g.ID, mv)
		if err != nil {
			return fmt.Errorf("move %s: %w", mv, err)
		}
		v := verdict{ok: res.OK, kind: res.Kind, message: res.Message}
		if res.Game != nil {
			v.status = res.Game.Status
		}
		printVerdict(mv, v)
	}
	text, err := client.BoardText(ctx, g.ID)
	if err != nil {
		return err
	}
	fmt.Print(text)
	return nil
}

func printVerdict(move string, v verdict) {
	if v.ok {
		line := color.New(color.FgGreen).Sprintf("%-8s ok", move)
		if v.status == string(game.StatusCheck) {
			line += color.New(color.FgYellow, color.Bold).Sprint("  check")
		} else if v.status != string(game.StatusInProgress) {
			line += color.New(color.FgCyan, color.Bold).Sprint("  " + v.status)
		}
		fmt.Fprintln(os.Stdout, line)
		return
	}
	fmt.Fprintln(os.Stdout, color.New(color.FgRed).Sprintf("%-8s %s: %s", move, v.kind, v.message))
}
