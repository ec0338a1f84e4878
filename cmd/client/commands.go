package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mmuslimabdulj/goat-canvas/internal/canvas"
	"github.com/mmuslimabdulj/goat-canvas/internal/domain"
)

const help = `commands:
  add-text <x> <y> <content...>
  add-shape <rectangle|circle|triangle> <x> <y> <w> <h> [fill]
  add-image <x> <y> <w> <h> <src>
  move <id> <x> <y>
  delete <id>
  pan <x> <y> [scale]
  cursor <x> <y>
  dump | users | help | quit`

var errQuit = errors.New("quit")

// runCommands reads one command per line until EOF, quit or ctx ends
func runCommands(ctx context.Context, rec *canvas.Reconciler, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 64*1024), domain.MaxMessageSize)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	fmt.Fprintln(out, help)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			err := execute(ctx, rec, line, out)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
	}
}

// execute runs one command line against the reconciler
func execute(ctx context.Context, rec *canvas.Reconciler, line string, out io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "add-text":
		if len(args) < 2 {
			return fmt.Errorf("usage: add-text <x> <y> <content...>")
		}
		x, y, err := parsePoint(args[0], args[1])
		if err != nil {
			return err
		}
		el := domain.NewText(uuid.NewString(), x, y, strings.Join(args[2:], " "))
		t := el.Text.WithDefaults()
		el.Text = &t
		return submitAdd(ctx, rec, el, out)

	case "add-shape":
		if len(args) < 5 {
			return fmt.Errorf("usage: add-shape <type> <x> <y> <w> <h> [fill]")
		}
		nums, err := parseFloats(args[1:5])
		if err != nil {
			return err
		}
		fill := "#cccccc"
		if len(args) > 5 {
			fill = args[5]
		}
		el := domain.NewShape(uuid.NewString(), domain.ShapeType(args[0]), nums[0], nums[1], nums[2], nums[3], fill)
		return submitAdd(ctx, rec, el, out)

	case "add-image":
		if len(args) != 5 {
			return fmt.Errorf("usage: add-image <x> <y> <w> <h> <src>")
		}
		nums, err := parseFloats(args[:4])
		if err != nil {
			return err
		}
		el := domain.NewImage(uuid.NewString(), nums[0], nums[1], nums[2], nums[3], args[4])
		return submitAdd(ctx, rec, el, out)

	case "move":
		if len(args) != 3 {
			return fmt.Errorf("usage: move <id> <x> <y>")
		}
		x, y, err := parsePoint(args[1], args[2])
		if err != nil {
			return err
		}
		return move(ctx, rec, args[0], x, y)

	case "delete":
		if len(args) != 1 {
			return fmt.Errorf("usage: delete <id>")
		}
		return tolerateOffline(rec.Submit(ctx, domain.ElementDeleted{ID: args[0]}), out)

	case "pan":
		if len(args) < 2 {
			return fmt.Errorf("usage: pan <x> <y> [scale]")
		}
		x, y, err := parsePoint(args[0], args[1])
		if err != nil {
			return err
		}
		var v domain.Viewport
		rec.Do(ctx, func(r *canvas.Reconciler) { v = r.Store().Viewport() })
		v.Offset = domain.Point{X: x, Y: y}
		if len(args) > 2 {
			if v.Scale, err = strconv.ParseFloat(args[2], 64); err != nil {
				return fmt.Errorf("bad scale %q", args[2])
			}
		}
		return tolerateOffline(rec.Submit(ctx, domain.ViewportChanged{Viewport: v}), out)

	case "cursor":
		if len(args) != 2 {
			return fmt.Errorf("usage: cursor <x> <y>")
		}
		x, y, err := parsePoint(args[0], args[1])
		if err != nil {
			return err
		}
		return tolerateOffline(rec.Submit(ctx, domain.CursorMoved{Position: domain.Point{X: x, Y: y}}), out)

	case "dump":
		var snap domain.Snapshot
		rec.Do(ctx, func(r *canvas.Reconciler) { snap = r.Store().Snapshot() })
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)

	case "users":
		var users []string
		var self string
		rec.Do(ctx, func(r *canvas.Reconciler) {
			users, self = r.Store().Users(), r.Store().Self()
		})
		for _, u := range users {
			if u == self {
				fmt.Fprintf(out, "%s (you)\n", u)
				continue
			}
			fmt.Fprintln(out, u)
		}
		return nil

	case "help":
		fmt.Fprintln(out, help)
		return nil

	case "quit", "exit":
		return errQuit
	}
	return fmt.Errorf("unknown command %q, try help", cmd)
}

func submitAdd(ctx context.Context, rec *canvas.Reconciler, el domain.Element, out io.Writer) error {
	err := rec.Submit(ctx, domain.ElementAdded{Element: el})
	if err != nil && !errors.Is(err, canvas.ErrNotConnected) {
		return err
	}
	fmt.Fprintln(out, el.ID)
	return tolerateOffline(err, out)
}

// move replays a drag: remote updates of the element are held off until the
// final position has been applied and sent
func move(ctx context.Context, rec *canvas.Reconciler, id string, x, y float64) error {
	var err error
	doErr := rec.Do(ctx, func(r *canvas.Reconciler) {
		el, ok := r.Store().Element(id)
		if !ok {
			err = fmt.Errorf("no element %q", id)
			return
		}
		r.BeginDrag(id)
		defer r.EndDrag(id)
		err = r.ApplyLocal(domain.ElementUpdated{Element: el.MoveTo(x, y)})
	})
	if doErr != nil {
		return doErr
	}
	return err
}

func tolerateOffline(err error, out io.Writer) error {
	if errors.Is(err, canvas.ErrNotConnected) {
		fmt.Fprintln(out, "offline: applied locally only")
		return nil
	}
	return err
}

func parsePoint(xs, ys string) (float64, float64, error) {
	nums, err := parseFloats([]string{xs, ys})
	if err != nil {
		return 0, 0, err
	}
	return nums[0], nums[1], nil
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", a)
		}
		out[i] = v
	}
	return out, nil
}
