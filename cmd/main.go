package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/pebble"
	"github.com/ergochat/readline"

	"github.com/drpcorg/statetrack"
	"github.com/drpcorg/statetrack/model"
)

var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),
	readline.PcItem("class"),
	readline.PcItem("add"),
	readline.PcItem("track"),
	readline.PcItem("list"),
	readline.PcItem("dump"),
	readline.PcItem("save"),
	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

var ErrBadEntryJson = errors.New("bad entry JSON serialization")

// ["Order", 1, "cake", 3.14, ...] -> field values in declaration order
func attachFromJson(t *statetrack.Tracker, jsn string, add bool) (*statetrack.Entry, error) {
	var parsed any
	if err := json.Unmarshal([]byte(jsn), &parsed); err != nil {
		return nil, err
	}
	list, ok := parsed.([]any)
	if !ok || len(list) == 0 {
		return nil, ErrBadEntryJson
	}
	class, ok := list[0].(string)
	if !ok {
		return nil, ErrBadEntryJson
	}
	c, err := t.Model().Class(class)
	if err != nil {
		return nil, err
	}
	vals := make([]any, 0, len(list)-1)
	for i, raw := range list[1:] {
		if i >= len(c.Fields) {
			break
		}
		v := raw
		// JSON numbers arrive as float64; coerce to the field kind
		if f, is := raw.(float64); is {
			switch c.Fields[i].Kind {
			case model.Int:
				v = int64(f)
			case model.Enum:
				v = int32(f)
			case model.Uint:
				v = uint64(f)
			}
		}
		vals = append(vals, v)
	}
	if add {
		return t.Add(class, vals)
	}
	return t.Track(class, vals)
}

func main() {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "◌ ",
		HistoryFile:     "/tmp/statetrack.tmp",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	defer l.Close()
	l.CaptureExitSignal()

	m := model.New()
	var tracker *statetrack.Tracker
	var db *pebble.DB

	if len(os.Args) > 1 {
		db, err = statetrack.OpenStore(os.Args[1])
		if err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(-1)
		}
	}

	// the tracker is created on the first command that needs one,
	// after the classes are declared
	ensure := func() error {
		if tracker != nil {
			return nil
		}
		t, err := statetrack.NewTracker(m, statetrack.Options{})
		if err != nil {
			return err
		}
		tracker = t
		if db != nil {
			return tracker.LoadAll(db)
		}
		return nil
	}

	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			break
		}

		line = strings.TrimSpace(line)
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)
		err = nil
		switch cmd {
		case "help":
			fmt.Println("class Name: *IId SName | add [\"Name\",1,\"x\"] | track [...] | list | dump | save | exit")
		case "class":
			var c *model.Class
			if c, err = model.ParseClass(rest); err == nil {
				err = m.AddClass(c)
			}
		case "add", "track":
			if err = ensure(); err == nil {
				_, err = attachFromJson(tracker, rest, cmd == "add")
			}
		case "list":
			if err = ensure(); err == nil {
				tracker.DumpEntries(os.Stdout)
			}
		case "dump":
			if err = ensure(); err == nil {
				tracker.DumpAll(os.Stdout)
			}
		case "save":
			if err = ensure(); err == nil {
				if db == nil {
					err = errors.New("no store open, start with: statetrack <dir>")
				} else {
					err = tracker.SaveAll(db)
				}
			}
		case "exit", "quit":
			ex := 0
			if db != nil {
				if err = db.Close(); err != nil {
					_, _ = fmt.Fprintln(os.Stderr, err.Error())
					ex = -1
				}
			}
			os.Exit(ex)
		case "":
		default:
			_, _ = fmt.Fprintf(os.Stderr, "command unknown: %s\n", cmd)
		}

		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error executing %s: %s\n", cmd, err.Error())
		}
	}
}
