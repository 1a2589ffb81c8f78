package client

import (
	failerrors "github.com/kart-io/failurous/errors"
	"github.com/kart-io/failurous/notification"
)

var (
	errNilNotification = failerrors.New(failerrors.ErrInvalidArgs, "notification is nil")
	errUnknownArgs     = failerrors.New(failerrors.ErrInvalidArgs, "unsupported notify arguments")
)

// Shape names how a notify call was made.
type Shape string

const (
	ShapeNotification    Shape = "notification"
	ShapeException       Shape = "exception"
	ShapeTitledException Shape = "titled_exception"
	ShapeMessage         Shape = "message"
)

// Args is the closed set of notify call forms.
type Args interface {
	Shape() Shape
	isArgs()
}

// NotificationArgs sends an already built notification unchanged.
type NotificationArgs struct {
	Notification *notification.Notification
}

// ExceptionArgs builds a notification from an error.
type ExceptionArgs struct {
	Err    error
	Object any
}

// TitledExceptionArgs builds a notification from an error with a custom title.
type TitledExceptionArgs struct {
	Title  string
	Err    error
	Object any
}

// MessageArgs builds a notification with just a title. Its location defaults
// to the notify call site.
type MessageArgs struct {
	Title  string
	Object any
}

func (NotificationArgs) Shape() Shape    { return ShapeNotification }
func (ExceptionArgs) Shape() Shape       { return ShapeException }
func (TitledExceptionArgs) Shape() Shape { return ShapeTitledException }
func (MessageArgs) Shape() Shape         { return ShapeMessage }

func (NotificationArgs) isArgs()    {}
func (ExceptionArgs) isArgs()       {}
func (TitledExceptionArgs) isArgs() {}
func (MessageArgs) isArgs()         {}

// Classify maps loosely typed notify arguments to Args, first match wins:
//
//   - a *notification.Notification is sent as is, a nil one is rejected by Build
//   - an error builds an exception notification, a second argument is the object
//   - a string followed by an error builds a titled exception notification
//   - anything else is a message: a leading string is the title and the next
//     argument the object, otherwise the first argument is the object
func Classify(args ...any) Args {
	if len(args) == 0 {
		return MessageArgs{}
	}

	switch first := args[0].(type) {
	case *notification.Notification:
		return NotificationArgs{Notification: first}
	case error:
		return ExceptionArgs{Err: first, Object: argAt(args, 1)}
	case string:
		if err, ok := argAt(args, 1).(error); ok {
			return TitledExceptionArgs{Title: first, Err: err, Object: argAt(args, 2)}
		}
		return MessageArgs{Title: first, Object: argAt(args, 1)}
	}

	return MessageArgs{Object: args[0]}
}

// TraceArgs gives the error of an exception shape the stack starting skip
// frames above the caller of TraceArgs, unless it already carries one. Other
// shapes are returned unchanged.
func TraceArgs(args Args, skip int) Args {
	switch a := args.(type) {
	case ExceptionArgs:
		a.Err = notification.TraceSkip(a.Err, skip+1)
		return a
	case TitledExceptionArgs:
		a.Err = notification.TraceSkip(a.Err, skip+1)
		return a
	}
	return args
}

func argAt(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}

// Builder turns Args into notifications using a factory.
type Builder struct {
	factory notification.Factory
}

// NewBuilder creates a builder. A nil factory means notification.DefaultFactory.
func NewBuilder(factory notification.Factory) *Builder {
	if factory == nil {
		factory = notification.DefaultFactory{}
	}
	return &Builder{factory: factory}
}

// Build creates the notification for args. caller is the notify call site and
// becomes the default location. A nil notification with a nil error means the
// factory chose to ignore the call.
func (b *Builder) Build(args Args, caller string) (*notification.Notification, error) {
	switch a := args.(type) {
	case NotificationArgs:
		if a.Notification == nil {
			return nil, errNilNotification
		}
		return a.Notification, nil

	case ExceptionArgs:
		if b.ignored(a.Err, a.Object) {
			return nil, nil
		}
		return b.factory.Create(notification.Spec{Err: a.Err, Object: a.Object, Caller: caller})

	case TitledExceptionArgs:
		if b.ignored(a.Err, a.Object) {
			return nil, nil
		}
		return b.factory.Create(notification.Spec{Title: a.Title, Err: a.Err, Object: a.Object, Caller: caller})

	case MessageArgs:
		n, err := b.factory.Create(notification.Spec{Title: a.Title, Object: a.Object, Caller: caller})
		if err != nil || n == nil {
			return nil, err
		}
		if !n.LocationSet() {
			n.SetLocation(caller)
			n.SetUseLocationInChecksum(true)
		}
		return n, nil
	}

	return nil, errUnknownArgs
}

func (b *Builder) ignored(err error, object any) bool {
	ig, ok := b.factory.(notification.Ignorer)
	return ok && err != nil && ig.Ignore(err, object)
}
