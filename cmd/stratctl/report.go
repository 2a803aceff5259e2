package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	godbus "github.com/godbus/dbus/v5"

	"github.com/jbweber/stratctl/internal/failure"
	"github.com/jbweber/stratctl/internal/stratisd"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// Names of the bus errors that get a dedicated explanation.
const (
	busNameHasNoOwner = "org.freedesktop.DBus.Error.NameHasNoOwner"
	busServiceUnknown = "org.freedesktop.DBus.Error.ServiceUnknown"
	busAccessDenied   = "org.freedesktop.DBus.Error.AccessDenied"
	busNoReply        = "org.freedesktop.DBus.Error.NoReply"
)

const timeoutExplanation = "stratisd did not reply before the timeout expired; it may be busy. " +
	"A longer --timeout or STRATIS_DBUS_TIMEOUT may help."

// report writes err to w and returns the process exit code.
func report(w io.Writer, err error, raw bool) int {
	if err == nil {
		return exitOK
	}

	var usage usageError
	if errors.As(err, &usage) {
		fmt.Fprintf(w, "Error: %v\n", err)
		fmt.Fprintln(w, "Run 'stratctl --help' for usage.")
		return exitUsage
	}

	if raw {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	fmt.Fprintln(w, color.RedString("Execution failed:"))
	fmt.Fprintln(w, color.RedString(explain(err)))
	return exitError
}

// explain turns an error into a message that tells the user what went
// wrong and, where possible, what to do about it.
func explain(err error) string {
	if name, ok := busErrorName(err); ok {
		switch name {
		case busNameHasNoOwner, busServiceUnknown:
			return fmt.Sprintf("Most likely stratisd is not running: nothing owns the bus name %s.", stratisd.Service)
		case busAccessDenied:
			return "Most likely you do not have sufficient permissions to talk to stratisd; try running as root."
		case busNoReply:
			return timeoutExplanation
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return timeoutExplanation
	}

	var (
		notFound  *failure.NotFoundError
		ambiguous *failure.AmbiguousMatchError
		partial   *failure.PartialChangeError
		inUse     *failure.InUseError
		engine    *failure.EngineError
		conflict  *failure.NameConflictError
		noProp    *failure.NoPropertyChangeError
		missing   *failure.MissingPropertyError
		version   *failure.VersionError
		incoh     *failure.IncoherenceError
	)
	switch {
	case errors.As(err, &notFound):
		return fmt.Sprintf("Most likely you specified a %s which does not exist: %v", notFound.Category, notFound)
	case errors.As(err, &ambiguous):
		return fmt.Sprintf("stratisd published more than one object where only one was expected: %v", ambiguous)
	case errors.As(err, &partial):
		// NoChangeError converts to *PartialChangeError too.
		return explainPartial(partial)
	case errors.As(err, &inUse):
		return explainInUse(inUse)
	case errors.As(err, &engine):
		return fmt.Sprintf("stratisd failed to perform the operation that you requested. "+
			"It returned the following information via the D-Bus: %v.", engine)
	case errors.As(err, &conflict):
		return fmt.Sprintf("You tried to create a %s named %q, but one already exists. Choose a different name.",
			conflict.Category, conflict.Name)
	case errors.As(err, &noProp):
		return noProp.Message
	case errors.As(err, &missing):
		return fmt.Sprintf("stratisd published an object without a property this version of stratctl needs (%v). "+
			"Most likely stratctl and stratisd speak different interface revisions.", missing)
	case errors.As(err, &version):
		return version.Error() + ". Install a stratisd in that range, or pass --skip-version-check at your own risk."
	case errors.As(err, &incoh):
		return "stratisd reported a result that contradicts its published state; the operation may have been " +
			"partly carried out. Check the current state before retrying: " + incoh.Message
	}

	return err.Error()
}

// busErrorName returns the name of a D-Bus error reply in err's chain.
// godbus hands these out both as values and as pointers.
func busErrorName(err error) (string, bool) {
	var value godbus.Error
	if errors.As(err, &value) {
		return value.Name, true
	}
	var ptr *godbus.Error
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Name, true
	}
	return "", false
}

func explainPartial(e *failure.PartialChangeError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "It appears that you issued an unintended command: the %s command would have no effect for %s.",
		e.Command, strings.Join(e.Unchanged, ", "))
	if len(e.Changed) > 0 {
		fmt.Fprintf(&b, " It would change %s. Leave out the items that need no change and retry.",
			strings.Join(e.Changed, ", "))
	}
	return b.String()
}

func explainInUse(e *failure.InUseError) string {
	if e.SameTier {
		return fmt.Sprintf("You specified devices that are already in the %s tier of another pool: %s.",
			e.Tier, strings.Join(e.Devices(), ", "))
	}
	return fmt.Sprintf("You specified devices that are already in use in the %s tier: %s. "+
		"A device can belong to only one tier of one pool.", e.Tier, strings.Join(e.Devices(), ", "))
}
