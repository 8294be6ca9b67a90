package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/Ratio1/webhdfs_sdk_go/internal/devseed"
	"github.com/Ratio1/webhdfs_sdk_go/pkg/webhdfs/mock"
)

var log = logging.Logger("webhdfs-sandbox")

type failConfig struct {
	rate float64
	code int
	ops  map[string]bool
}

func main() {
	addr := flag.String("addr", ":50070", "listen address")
	seed := flag.String("seed", "", "path to YAML or JSON seed for the namespace")
	user := flag.String("user", "", "user assumed when requests carry no user.name")
	latency := flag.Duration("latency", 0, "artificial latency to inject per request")
	fail := flag.String("fail", "", "failure injection (rate=<float>,code=<httpStatus>,op=<OP>[|<OP>])")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	if err := logging.SetLogLevelRegex("webhdfs.*", *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
		os.Exit(2)
	}

	var opts []mock.Option
	if *user != "" {
		opts = append(opts, mock.WithDefaultUser(*user))
	}
	fs := mock.New(opts...)
	if *seed != "" {
		entries, err := devseed.Load(*seed)
		if err != nil {
			log.Fatalf("load seed: %v", err)
		}
		if err := fs.Seed(entries); err != nil {
			log.Fatalf("apply seed: %v", err)
		}
	}

	failCfg, err := parseFailConfig(*fail)
	if err != nil {
		log.Fatalf("parse fail flag: %v", err)
	}

	server := &http.Server{
		Addr:              *addr,
		Handler:           withMiddleware(*latency, failCfg, fs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Infof("webhdfs-sandbox listening on %s", *addr)
	host, port := "localhost", strings.TrimPrefix(*addr, ":")
	if h, p, ok := strings.Cut(*addr, ":"); ok && h != "" {
		host, port = h, p
	}
	fmt.Println()
	fmt.Println("export WEBHDFS_MODE=http")
	fmt.Printf("export WEBHDFS_HOST=%s\n", host)
	fmt.Printf("export WEBHDFS_PORT=%s\n", port)
	fmt.Println()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}

// withMiddleware injects latency and failures ahead of NameNode requests.
// DataNode hops are never failed so a granted redirect always completes.
func withMiddleware(delay time.Duration, failCfg failConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			time.Sleep(delay)
		}
		op := strings.ToUpper(r.URL.Query().Get("op"))
		log.Debugw("request", "method", r.Method, "path", r.URL.Path, "op", op)
		if failCfg.applies(op) && rand.Float64() < failCfg.rate {
			status := failCfg.code
			if status == 0 {
				status = http.StatusInternalServerError
			}
			log.Debugw("failure injected", "op", op, "status", status)
			writeJSON(w, status, map[string]any{
				"RemoteException": map[string]string{
					"exception":     "IOException",
					"javaClassName": "java.io.IOException",
					"message":       "failure injected",
				},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (c failConfig) applies(op string) bool {
	if c.rate <= 0 || op == "" {
		return false
	}
	return len(c.ops) == 0 || c.ops[op]
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warnw("encode response", "err", err)
	}
}

func parseFailConfig(raw string) (failConfig, error) {
	if strings.TrimSpace(raw) == "" {
		return failConfig{}, nil
	}
	cfg := failConfig{code: http.StatusInternalServerError}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return failConfig{}, fmt.Errorf("invalid fail segment %q", part)
		}
		val = strings.TrimSpace(val)
		switch strings.TrimSpace(key) {
		case "rate":
			rate, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return failConfig{}, err
			}
			if rate < 0 || rate > 1 {
				return failConfig{}, fmt.Errorf("fail rate %v out of range [0,1]", rate)
			}
			cfg.rate = rate
		case "code":
			code, err := strconv.Atoi(val)
			if err != nil {
				return failConfig{}, err
			}
			cfg.code = code
		case "op":
			cfg.ops = make(map[string]bool)
			for _, op := range strings.Split(val, "|") {
				if op = strings.ToUpper(strings.TrimSpace(op)); op != "" {
					cfg.ops[op] = true
				}
			}
		default:
			return failConfig{}, fmt.Errorf("unknown fail key %q", key)
		}
	}
	return cfg, nil
}
