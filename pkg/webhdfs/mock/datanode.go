package mock

import (
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
)

// serveDataNode redeems a ticket issued by a NameNode redirect. Tickets are
// single use.
func (m *Mock) serveDataNode(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, dataNodePrefix)

	m.mu.Lock()
	t, ok := m.tickets[id]
	if ok {
		delete(m.tickets, id)
	}
	m.mu.Unlock()
	if !ok {
		writeException(w, http.StatusNotFound, "InvalidToken", "unknown or used ticket "+id)
		return
	}

	switch t.op {
	case "OPEN":
		if r.Method != http.MethodGet {
			writeException(w, http.StatusBadRequest, "IllegalArgumentException", "OPEN requires GET")
			return
		}
		m.readTicket(w, r, t)
	case "CREATE", "APPEND":
		if r.Method != http.MethodPost {
			writeException(w, http.StatusBadRequest, "IllegalArgumentException", t.op+" data requires POST")
			return
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/octet-stream" {
			writeException(w, http.StatusBadRequest, "IllegalArgumentException", "unexpected Content-Type "+ct)
			return
		}
		data, err := io.ReadAll(r.Body)
		if err != nil {
			writeException(w, http.StatusBadRequest, "IOException", err.Error())
			return
		}
		m.writeTicket(w, t, data)
	default:
		writeException(w, http.StatusBadRequest, "IllegalArgumentException", "unsupported ticket op "+t.op)
	}
}

func (m *Mock) readTicket(w http.ResponseWriter, r *http.Request, t ticket) {
	m.mu.Lock()
	n, ok := m.nodes[t.path]
	var data []byte
	if ok && !n.dir {
		data = append([]byte(nil), n.data...)
		n.accessTime = m.now()
	}
	m.mu.Unlock()
	if !ok || n.dir {
		writeNotFound(w, t.path)
		return
	}

	q := r.URL.Query()
	offset, _ := strconv.ParseInt(q.Get("offset"), 10, 64)
	if offset < 0 || offset > int64(len(data)) {
		writeException(w, http.StatusBadRequest, "IOException", "offset out of range")
		return
	}
	data = data[offset:]
	if length, err := strconv.ParseInt(q.Get("length"), 10, 64); err == nil && length >= 0 && length < int64(len(data)) {
		data = data[:length]
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Warnw("write file body", "path", t.path, "err", err)
	}
}

func (m *Mock) writeTicket(w http.ResponseWriter, t ticket, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.nodes[t.path]
	if t.op == "APPEND" {
		if !exists || existing.dir {
			writeNotFound(w, t.path)
			return
		}
		existing.data = append(existing.data, data...)
		existing.modTime = m.now()
		w.WriteHeader(http.StatusOK)
		return
	}

	if exists && (existing.dir || !t.overwrite) {
		writeException(w, http.StatusForbidden, "FileAlreadyExistsException", t.path+" already exists")
		return
	}
	if err := m.mkdirAll(path.Dir(t.path), t.user, defaultDirPerm); err != nil {
		writeException(w, http.StatusForbidden, "ParentNotDirectoryException", err.Error())
		return
	}
	n := m.newFile(t.user, t.permission, t.replication, t.blockSize)
	n.data = append([]byte(nil), data...)
	m.nodes[t.path] = n
	w.Header().Set("Location", "hdfs://"+t.path)
	w.WriteHeader(http.StatusCreated)
}
