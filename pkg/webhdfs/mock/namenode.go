package mock

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
)

// opMethods pins the HTTP verb each operation is served on.
var opMethods = map[string]string{
	"CREATE":            http.MethodPut,
	"APPEND":            http.MethodPost,
	"OPEN":              http.MethodGet,
	"MKDIRS":            http.MethodPut,
	"RENAME":            http.MethodPut,
	"DELETE":            http.MethodDelete,
	"GETFILESTATUS":     http.MethodGet,
	"LISTSTATUS":        http.MethodGet,
	"GETCONTENTSUMMARY": http.MethodGet,
	"GETFILECHECKSUM":   http.MethodGet,
	"GETHOMEDIRECTORY":  http.MethodGet,
	"SETPERMISSION":     http.MethodPut,
	"SETOWNER":          http.MethodPut,
	"SETREPLICATION":    http.MethodPut,
	"SETTIMES":          http.MethodPut,
}

func (m *Mock) serveNameNode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	op := strings.ToUpper(q.Get("op"))
	method, ok := opMethods[op]
	if !ok {
		writeException(w, http.StatusBadRequest, "IllegalArgumentException", "Invalid value for webhdfs parameter \"op\": "+q.Get("op"))
		return
	}
	if r.Method != method {
		writeException(w, http.StatusBadRequest, "IllegalArgumentException", op+" requires "+method)
		return
	}

	p := cleanPath(strings.TrimPrefix(r.URL.Path, apiPrefix))
	user := q.Get("user.name")
	if user == "" {
		user = m.user
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch op {
	case "CREATE":
		m.createRedirect(w, r, p, user, q)
	case "APPEND":
		m.appendRedirect(w, r, p, user)
	case "OPEN":
		m.openRedirect(w, r, p, q)
	case "MKDIRS":
		m.mkdirs(w, p, user, q)
	case "RENAME":
		m.rename(w, p, q)
	case "DELETE":
		m.remove(w, p, q)
	case "GETFILESTATUS":
		m.fileStatus(w, p)
	case "LISTSTATUS":
		m.listStatus(w, p)
	case "GETCONTENTSUMMARY":
		m.contentSummary(w, p)
	case "GETFILECHECKSUM":
		m.fileChecksum(w, p)
	case "GETHOMEDIRECTORY":
		writeJSON(w, http.StatusOK, map[string]any{"Path": homeDir(user)})
	case "SETPERMISSION":
		m.setPermission(w, p, q)
	case "SETOWNER":
		m.setOwner(w, p, q)
	case "SETREPLICATION":
		m.setReplication(w, p, q)
	case "SETTIMES":
		m.setTimes(w, p, q)
	}
}

func (m *Mock) createRedirect(w http.ResponseWriter, r *http.Request, p, user string, q url.Values) {
	overwrite := q.Get("overwrite") == "true"
	if n, ok := m.nodes[p]; ok && (n.dir || !overwrite) {
		writeException(w, http.StatusForbidden, "FileAlreadyExistsException", p+" already exists")
		return
	}
	if parent, ok := m.nodes[path.Dir(p)]; ok && !parent.dir {
		writeException(w, http.StatusForbidden, "ParentNotDirectoryException", path.Dir(p)+" is not a directory")
		return
	}
	perm := q.Get("permission")
	if perm != "" && !validOctal(perm) {
		writeException(w, http.StatusBadRequest, "IllegalArgumentException", "invalid permission "+perm)
		return
	}
	replication, _ := strconv.Atoi(q.Get("replication"))
	blockSize, _ := strconv.ParseInt(q.Get("blocksize"), 10, 64)
	id := m.issueTicket(ticket{
		op:          "CREATE",
		path:        p,
		user:        user,
		overwrite:   overwrite,
		permission:  perm,
		replication: replication,
		blockSize:   blockSize,
	})
	redirect(w, r, id, nil)
}

func (m *Mock) appendRedirect(w http.ResponseWriter, r *http.Request, p, user string) {
	n, ok := m.nodes[p]
	if !ok {
		writeNotFound(w, p)
		return
	}
	if n.dir {
		writeException(w, http.StatusForbidden, "FileNotFoundException", p+" is a directory")
		return
	}
	id := m.issueTicket(ticket{op: "APPEND", path: p, user: user})
	redirect(w, r, id, nil)
}

func (m *Mock) openRedirect(w http.ResponseWriter, r *http.Request, p string, q url.Values) {
	n, ok := m.nodes[p]
	if !ok {
		writeNotFound(w, p)
		return
	}
	if n.dir {
		writeException(w, http.StatusNotFound, "FileNotFoundException", p+" is a directory")
		return
	}
	id := m.issueTicket(ticket{op: "OPEN", path: p})
	extra := url.Values{}
	for _, key := range []string{"offset", "length"} {
		if v := q.Get(key); v != "" {
			extra.Set(key, v)
		}
	}
	redirect(w, r, id, extra)
}

func (m *Mock) mkdirs(w http.ResponseWriter, p, user string, q url.Values) {
	perm := q.Get("permission")
	if perm == "" {
		perm = defaultDirPerm
	}
	if !validOctal(perm) {
		writeException(w, http.StatusBadRequest, "IllegalArgumentException", "invalid permission "+perm)
		return
	}
	if err := m.mkdirAll(p, user, perm); err != nil {
		writeException(w, http.StatusForbidden, "ParentNotDirectoryException", err.Error())
		return
	}
	writeBoolean(w, true)
}

func (m *Mock) rename(w http.ResponseWriter, p string, q url.Values) {
	dest := q.Get("destination")
	if dest == "" {
		writeException(w, http.StatusBadRequest, "IllegalArgumentException", "destination is required")
		return
	}
	dest = cleanPath(dest)
	if _, ok := m.nodes[p]; !ok || p == "/" {
		writeBoolean(w, false)
		return
	}
	if d, ok := m.nodes[dest]; ok {
		if !d.dir {
			writeBoolean(w, false)
			return
		}
		dest = path.Join(dest, path.Base(p))
		if _, taken := m.nodes[dest]; taken {
			writeBoolean(w, false)
			return
		}
	}
	if parent, ok := m.nodes[path.Dir(dest)]; !ok || !parent.dir {
		writeBoolean(w, false)
		return
	}
	if dest == p || strings.HasPrefix(dest, p+"/") {
		writeBoolean(w, false)
		return
	}
	for _, old := range m.subtree(p) {
		n := m.nodes[old]
		delete(m.nodes, old)
		m.nodes[dest+strings.TrimPrefix(old, p)] = n
	}
	writeBoolean(w, true)
}

func (m *Mock) remove(w http.ResponseWriter, p string, q url.Values) {
	n, ok := m.nodes[p]
	if !ok || p == "/" {
		writeBoolean(w, false)
		return
	}
	if n.dir && len(m.children(p)) > 0 && q.Get("recursive") != "true" {
		writeException(w, http.StatusForbidden, "PathIsNotEmptyDirectoryException", p+" is non empty")
		return
	}
	for _, sub := range m.subtree(p) {
		delete(m.nodes, sub)
	}
	writeBoolean(w, true)
}

func (m *Mock) fileStatus(w http.ResponseWriter, p string) {
	n, ok := m.nodes[p]
	if !ok {
		writeNotFound(w, p)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"FileStatus": n.status("")})
}

func (m *Mock) listStatus(w http.ResponseWriter, p string) {
	n, ok := m.nodes[p]
	if !ok {
		writeNotFound(w, p)
		return
	}
	statuses := []map[string]any{}
	if n.dir {
		for _, child := range m.children(p) {
			statuses = append(statuses, m.nodes[child].status(path.Base(child)))
		}
	} else {
		statuses = append(statuses, n.status(""))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"FileStatuses": map[string]any{"FileStatus": statuses},
	})
}

func (m *Mock) contentSummary(w http.ResponseWriter, p string) {
	if _, ok := m.nodes[p]; !ok {
		writeNotFound(w, p)
		return
	}
	var dirs, files, length, consumed int64
	for _, sub := range m.subtree(p) {
		n := m.nodes[sub]
		if n.dir {
			dirs++
			continue
		}
		files++
		length += int64(len(n.data))
		consumed += int64(len(n.data)) * int64(n.replication)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ContentSummary": map[string]any{
			"directoryCount": dirs,
			"fileCount":      files,
			"length":         length,
			"quota":          -1,
			"spaceConsumed":  consumed,
			"spaceQuota":     -1,
		},
	})
}

func (m *Mock) fileChecksum(w http.ResponseWriter, p string) {
	n, ok := m.nodes[p]
	if !ok {
		writeNotFound(w, p)
		return
	}
	if n.dir {
		writeException(w, http.StatusNotFound, "FileNotFoundException", p+" is a directory")
		return
	}
	sum := md5.Sum(n.data)
	writeJSON(w, http.StatusOK, map[string]any{
		"FileChecksum": map[string]any{
			"algorithm": "MD5",
			"bytes":     hex.EncodeToString(sum[:]),
			"length":    len(sum),
		},
	})
}

func (m *Mock) setPermission(w http.ResponseWriter, p string, q url.Values) {
	n, ok := m.nodes[p]
	if !ok {
		writeNotFound(w, p)
		return
	}
	perm := q.Get("permission")
	if perm == "" {
		perm = defaultDirPerm
	}
	if !validOctal(perm) {
		writeException(w, http.StatusBadRequest, "IllegalArgumentException", "invalid permission "+perm)
		return
	}
	n.permission = perm
	w.WriteHeader(http.StatusOK)
}

func (m *Mock) setOwner(w http.ResponseWriter, p string, q url.Values) {
	n, ok := m.nodes[p]
	if !ok {
		writeNotFound(w, p)
		return
	}
	owner, group := q.Get("owner"), q.Get("group")
	if owner == "" && group == "" {
		writeException(w, http.StatusBadRequest, "IllegalArgumentException", "owner or group is required")
		return
	}
	if owner != "" {
		n.owner = owner
	}
	if group != "" {
		n.group = group
	}
	w.WriteHeader(http.StatusOK)
}

func (m *Mock) setReplication(w http.ResponseWriter, p string, q url.Values) {
	n, ok := m.nodes[p]
	if !ok {
		writeNotFound(w, p)
		return
	}
	if n.dir {
		writeBoolean(w, false)
		return
	}
	replication, err := strconv.Atoi(q.Get("replication"))
	if err != nil || replication <= 0 {
		writeException(w, http.StatusBadRequest, "IllegalArgumentException", "invalid replication "+q.Get("replication"))
		return
	}
	n.replication = replication
	writeBoolean(w, true)
}

func (m *Mock) setTimes(w http.ResponseWriter, p string, q url.Values) {
	n, ok := m.nodes[p]
	if !ok {
		writeNotFound(w, p)
		return
	}
	mtime, ok := parseMillis(q.Get("modificationtime"))
	if !ok {
		writeException(w, http.StatusBadRequest, "IllegalArgumentException", "invalid modificationtime")
		return
	}
	atime, ok := parseMillis(q.Get("accesstime"))
	if !ok {
		writeException(w, http.StatusBadRequest, "IllegalArgumentException", "invalid accesstime")
		return
	}
	if !mtime.IsZero() {
		n.modTime = mtime
	}
	if !atime.IsZero() {
		n.accessTime = atime
	}
	w.WriteHeader(http.StatusOK)
}

func (n *node) status(suffix string) map[string]any {
	st := map[string]any{
		"accessTime":       n.accessTime.UnixMilli(),
		"blockSize":        int64(0),
		"group":            n.group,
		"length":           int64(0),
		"modificationTime": n.modTime.UnixMilli(),
		"owner":            n.owner,
		"pathSuffix":       suffix,
		"permission":       n.permission,
		"replication":      0,
		"type":             "DIRECTORY",
	}
	if !n.dir {
		st["blockSize"] = n.blockSize
		st["length"] = int64(len(n.data))
		st["replication"] = n.replication
		st["type"] = "FILE"
	}
	return st
}

// redirect answers 307 with a DataNode URL on the host the request reached.
func redirect(w http.ResponseWriter, r *http.Request, id string, extra url.Values) {
	loc := url.URL{Scheme: "http", Host: r.Host, Path: dataNodePrefix + id}
	if len(extra) > 0 {
		loc.RawQuery = extra.Encode()
	}
	w.Header().Set("Location", loc.String())
	w.WriteHeader(http.StatusTemporaryRedirect)
}

// parseMillis treats an empty value and -1 as unset.
func parseMillis(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms < -1 {
		return time.Time{}, false
	}
	if ms == -1 {
		return time.Time{}, true
	}
	return time.UnixMilli(ms).UTC(), true
}

func validOctal(perm string) bool {
	v, err := strconv.ParseUint(perm, 8, 32)
	return err == nil && v <= 0o1777
}

func writeBoolean(w http.ResponseWriter, v bool) {
	writeJSON(w, http.StatusOK, map[string]any{"boolean": v})
}

func writeNotFound(w http.ResponseWriter, p string) {
	writeException(w, http.StatusNotFound, "FileNotFoundException", "File does not exist: "+p)
}

func writeException(w http.ResponseWriter, status int, exception, message string) {
	writeJSON(w, status, map[string]any{
		"RemoteException": map[string]any{
			"exception":     exception,
			"javaClassName": "org.apache.hadoop.fs." + exception,
			"message":       message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warnw("encode response", "err", err)
	}
}
