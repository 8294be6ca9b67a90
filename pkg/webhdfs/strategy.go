package webhdfs

import (
	"fmt"
	"net/http"
)

// Strategy selects how the Dispatcher interprets an HTTP exchange.
type Strategy int

const (
	// StatusOnly returns the bare status code without following redirects.
	StatusOnly Strategy = iota + 1
	// FetchBody follows redirects and returns the body of a 200 response.
	FetchBody
	// DecodeJSON follows redirects and decodes the body of a 200 response.
	DecodeJSON
	// WriteWithRedirect performs the two-phase NameNode/DataNode write.
	WriteWithRedirect
)

func (s Strategy) String() string {
	switch s {
	case StatusOnly:
		return "StatusOnly"
	case FetchBody:
		return "FetchBody"
	case DecodeJSON:
		return "DecodeJSON"
	case WriteWithRedirect:
		return "WriteWithRedirect"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Op is a WebHDFS operation code, sent as the op query parameter.
type Op string

const (
	OpCreate            Op = "CREATE"
	OpAppend            Op = "APPEND"
	OpOpen              Op = "OPEN"
	OpMkdirs            Op = "MKDIRS"
	OpRename            Op = "RENAME"
	OpDelete            Op = "DELETE"
	OpGetFileStatus     Op = "GETFILESTATUS"
	OpListStatus        Op = "LISTSTATUS"
	OpGetContentSummary Op = "GETCONTENTSUMMARY"
	OpGetFileChecksum   Op = "GETFILECHECKSUM"
	OpGetHomeDirectory  Op = "GETHOMEDIRECTORY"
	OpSetPermission     Op = "SETPERMISSION"
	OpSetOwner          Op = "SETOWNER"
	OpSetReplication    Op = "SETREPLICATION"
	OpSetTimes          Op = "SETTIMES"
)

type opSpec struct {
	method   string
	strategy Strategy
}

var opTable = map[Op]opSpec{
	OpCreate:            {http.MethodPut, WriteWithRedirect},
	OpAppend:            {http.MethodPost, WriteWithRedirect},
	OpOpen:              {http.MethodGet, FetchBody},
	OpMkdirs:            {http.MethodPut, DecodeJSON},
	OpRename:            {http.MethodPut, DecodeJSON},
	OpDelete:            {http.MethodDelete, DecodeJSON},
	OpGetFileStatus:     {http.MethodGet, DecodeJSON},
	OpListStatus:        {http.MethodGet, DecodeJSON},
	OpGetContentSummary: {http.MethodGet, DecodeJSON},
	OpGetFileChecksum:   {http.MethodGet, DecodeJSON},
	OpGetHomeDirectory:  {http.MethodGet, DecodeJSON},
	OpSetPermission:     {http.MethodPut, StatusOnly},
	OpSetOwner:          {http.MethodPut, StatusOnly},
	OpSetReplication:    {http.MethodPut, StatusOnly},
	OpSetTimes:          {http.MethodPut, StatusOnly},
}

// Method returns the HTTP verb used for op.
func (op Op) Method() string { return opTable[op].method }

// Strategy returns the response strategy used for op.
func (op Op) Strategy() Strategy { return opTable[op].strategy }
