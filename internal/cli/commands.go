package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jaxron/urlview/pkg/query"
	"github.com/jaxron/urlview/pkg/view"
)

// queryPrefix selects a single query key, as in "query.page".
const queryPrefix = "query."

// command is one subcommand of the tool.
type command struct {
	usage string
	short string
	exec  func(ctx context.Context, s *session, args []string) error
}

func (c command) name() string {
	name, _, _ := strings.Cut(c.usage, " ")
	return name
}

func (c command) helpLine() string {
	return fmt.Sprintf("  %-28s %s", c.usage, c.short)
}

var commands = []command{
	{usage: "href", short: "Print the canonical address", exec: cmdHref},
	{usage: "get <field|query.KEY>", short: "Print a field or one query value", exec: cmdGet},
	{usage: "set <field|query.KEY> <value>...", short: "Write a field or one query key", exec: cmdSet},
	{usage: "delete <field|query.KEY>", short: "Reset a field or remove one query key", exec: cmdDelete},
	{usage: "back", short: "Move to the previous history entry", exec: cmdBack},
	{usage: "forward", short: "Move to the next history entry", exec: cmdForward},
	{usage: "history", short: "List the history, marking the current entry", exec: cmdHistory},
}

func (s *session) dispatch(ctx context.Context, name string, args []string) error {
	for _, c := range commands {
		if c.name() == name {
			return c.exec(ctx, s, args)
		}
	}
	return fmt.Errorf("%w: %s", errUnknownCommand, name)
}

func (s *session) println(a ...any) {
	fprintln(s.out, a...)
}

// printHref prints the address after a write.
func (s *session) printHref(ctx context.Context) error {
	h, err := s.view.Href(ctx)
	if err != nil {
		return err
	}
	s.println(h)
	return nil
}

func cmdHref(ctx context.Context, s *session, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: href takes no arguments", errUsage)
	}
	return s.printHref(ctx)
}

func cmdGet(ctx context.Context, s *session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: get <field|query.KEY>", errUsage)
	}

	if key, ok := strings.CutPrefix(args[0], queryPrefix); ok {
		v, found, err := s.view.Params().Get(ctx, key)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("query parameter %q is not set", key)
		}
		for _, item := range v.Strings() {
			s.println(item)
		}
		return nil
	}

	field, err := view.ParseField(args[0])
	if err != nil {
		return err
	}
	value, err := s.view.Get(ctx, field)
	if err != nil {
		return err
	}
	s.println(value)
	return nil
}

func cmdSet(ctx context.Context, s *session, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: set <field|query.KEY> <value>...", errUsage)
	}

	if key, ok := strings.CutPrefix(args[0], queryPrefix); ok {
		value := query.Scalar(args[1])
		if len(args) > 2 {
			value = query.List(args[1:]...)
		}
		if err := s.view.Params().Set(ctx, key, value); err != nil {
			return err
		}
		return s.printHref(ctx)
	}

	if len(args) != 2 {
		return fmt.Errorf("%w: only query keys take several values", errUsage)
	}
	field, err := view.ParseField(args[0])
	if err != nil {
		return err
	}
	if err := s.view.Set(ctx, field, args[1]); err != nil {
		return err
	}
	return s.printHref(ctx)
}

func cmdDelete(ctx context.Context, s *session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: delete <field|query.KEY>", errUsage)
	}

	if key, ok := strings.CutPrefix(args[0], queryPrefix); ok {
		if err := s.view.Params().Delete(ctx, key); err != nil {
			return err
		}
		return s.printHref(ctx)
	}

	field, err := view.ParseField(args[0])
	if err != nil {
		return err
	}
	if err := s.view.Remove(ctx, field); err != nil {
		return err
	}
	return s.printHref(ctx)
}

func cmdBack(ctx context.Context, s *session, args []string) error {
	if s.nav == nil {
		return errDetached
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: back takes no arguments", errUsage)
	}
	if err := s.nav.Back(ctx); err != nil {
		return err
	}
	return s.printHref(ctx)
}

func cmdForward(ctx context.Context, s *session, args []string) error {
	if s.nav == nil {
		return errDetached
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: forward takes no arguments", errUsage)
	}
	if err := s.nav.Forward(ctx); err != nil {
		return err
	}
	return s.printHref(ctx)
}

func cmdHistory(ctx context.Context, s *session, args []string) error {
	if s.nav == nil {
		return errDetached
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: history takes no arguments", errUsage)
	}

	entries, index, err := s.nav.Entries(ctx)
	if err != nil {
		return err
	}
	for i, entry := range entries {
		marker := " "
		if i == index {
			marker = "*"
		}
		s.println(marker, entry)
	}
	return nil
}
