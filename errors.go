package spyglass

import (
	"strings"

	"github.com/VividCortex/mysqlerr"
	"github.com/go-sql-driver/mysql"
)

// Client-side error numbers from the MySQL client library. The mysqlerr
// package only covers the server-side ER_ range, so the client codes we care
// about are declared here with their canonical names.
const (
	CR_CONNECTION_ERROR = 2002 // can't connect through socket
	CR_CONN_HOST_ERROR  = 2003 // can't connect to server on host
)

// FormatError maps a server or client error number to a more actionable,
// user-facing message. The supplied message (typically the raw driver error
// text) is always retained for diagnostics, with remediation hints appended
// for the numbers this function knows about. Numbers it does not know about
// (including the -1 "no code" sentinel returned by ErrorNumber) yield the
// message unmodified. FormatError is total: no input is an error.
func FormatError(errorNumber int, message string) string {
	switch errorNumber {
	case CR_CONNECTION_ERROR:
		return message + " - the server is not responding (or the local server's socket is not correctly configured)"
	case CR_CONN_HOST_ERROR:
		return message + " - the server is not responding"
	case mysqlerr.ER_ACCESS_DENIED_NO_PASSWORD_ERROR:
		return message + " - you appear to be logged in without a password; log out and connect again as a user with sufficient privileges"
	case mysqlerr.ER_CANT_CREATE_TABLE:
		if strings.Contains(message, "errno: 13") {
			return message + " - please check privileges of the directory containing the database"
		}
		return message + " - check the storage engine's status for details of a possible failed initialization"
	}
	return message
}

// ErrorNumber returns the server or client error number of err, or -1 if err
// carries no such number (for example, a network-level failure). The -1
// sentinel is safe to pass to FormatError.
func ErrorNumber(err error) int {
	switch e := err.(type) {
	case *mysql.MySQLError:
		return int(e.Number)
	case *QueryError:
		return e.Number
	}
	return -1
}

// QueryError is the error type returned by Session query and exec methods
// (in their non-Try variants) when the underlying driver reports a failure.
// It retains the SQL that failed along with the error number, and its
// message has already been run through FormatError.
type QueryError struct {
	Query   string // SQL that failed; may be blank for connection-time errors
	Number  int    // server or client error number, or -1 if none applies
	Message string
	Err     error // underlying driver error
}

// Error satisfies the builtin error interface.
func (qe *QueryError) Error() string {
	return qe.Message
}

// Unwrap returns the underlying driver error.
func (qe *QueryError) Unwrap() error {
	return qe.Err
}

// WrapQueryError converts err into a *QueryError for the supplied query,
// extracting the error number when one is available and formatting the
// message via FormatError. A nil err returns nil.
func WrapQueryError(query string, err error) error {
	if err == nil {
		return nil
	}
	number := ErrorNumber(err)
	return &QueryError{
		Query:   query,
		Number:  number,
		Message: FormatError(number, err.Error()),
		Err:     err,
	}
}

// IsDatabaseError returns true if err came from a database server, typically
// as a response to a query or connection attempt. If one or more specificErrors
// are supplied, IsDatabaseError only returns true if the database error code
// matched one of those numbers. A *QueryError wrapping a server error counts
// as a database error.
func IsDatabaseError(err error, specificErrors ...uint16) bool {
	if qe, ok := err.(*QueryError); ok {
		err = qe.Err
	}
	if merr, ok := err.(*mysql.MySQLError); ok {
		if len(specificErrors) == 0 {
			return true
		}
		for _, num := range specificErrors {
			if merr.Number == num {
				return true
			}
		}
	}
	return false
}

// IsAccessError returns true if err indicates an authentication or authorization
// problem, at connection time or query time. Can be a problem with credentials,
// client host, no access to requested default database, missing privilege, etc.
// There is no sense in immediately retrying the connection or query when
// encountering this type of error.
func IsAccessError(err error) bool {
	accessErrors := []uint16{
		mysqlerr.ER_ACCESS_DENIED_ERROR,
		mysqlerr.ER_BAD_HOST_ERROR,
		mysqlerr.ER_DBACCESS_DENIED_ERROR,
		mysqlerr.ER_BAD_DB_ERROR,
		mysqlerr.ER_HOST_NOT_PRIVILEGED,
		mysqlerr.ER_HOST_IS_BLOCKED,
		mysqlerr.ER_SPECIFIC_ACCESS_DENIED_ERROR,
		mysqlerr.ER_ACCESS_DENIED_NO_PASSWORD_ERROR,
	}
	return IsDatabaseError(err, accessErrors...)
}
