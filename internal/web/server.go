// Package web serves the operator dashboard: a single HTML page plus an SSE
// stream of rotation events read from the journal.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/aureonlabs/rotor/internal/domain"
)

const journalPollInterval = 2 * time.Second

type journalReader interface {
	EventsAfter(index uint64) ([]domain.RotationEventRecord, error)
}

// Server exposes HTTP endpoints serving the HTML UI and an SSE stream.
type Server struct {
	Addr    string
	Journal journalReader
}

// NewServer creates a new web server instance.
func NewServer(addr string, journal journalReader) *Server {
	return &Server{Addr: addr, Journal: journal}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/rotations/stream", s.handleRotationStream)

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleRotationStream(w http.ResponseWriter, r *http.Request) {
	if s.Journal == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "journal not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// send a comment heartbeat every 30s so proxies keep connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(journalPollInterval)
	defer pollTicker.Stop()

	lastIndex := uint64(0)
	sendEvents := func() error {
		records, err := s.Journal.EventsAfter(lastIndex)
		if err != nil {
			return err
		}
		for _, record := range records {
			payload, err := json.Marshal(record.Event)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "event: rotation\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			lastIndex = record.Index
		}
		return nil
	}

	if err := sendEvents(); err != nil {
		http.Error(w, "failed to load rotation events", http.StatusInternalServerError)
		log.Printf("rotation stream initial load: %v", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendEvents(); err != nil {
				log.Printf("rotation stream poll err: %v", err)
			}
		}
	}
}

// Rotation feed with per-outcome counters.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Rotor</title>
  <link href="https://fonts.googleapis.com/css2?family=Space+Mono:wght@400;700&display=swap" rel="stylesheet">
  <style>
    :root {
      --bg:#ffffff;
      --ink:#111111;
      --ink-mid:#4d4d4d;
      --ink-soft:#9c9c9c;
      --panel:#f6f6f6;
    }
    * { box-sizing:border-box; }
    body {
      margin:0;
      min-height:100vh;
      display:flex;
      align-items:flex-start;
      justify-content:center;
      padding:2rem;
      background:var(--bg);
      color:var(--ink);
      font-family:'Space Mono',monospace;
    }
    #app {
      width:min(960px, 96vw);
      background:var(--panel);
      border:3px solid var(--ink);
      padding:2rem;
      box-shadow:12px 12px 0 rgba(0,0,0,.15);
    }
    header { display:flex; justify-content:space-between; align-items:center; gap:1rem; }
    h1 { font-size:.9rem; text-transform:uppercase; letter-spacing:.2em; margin:0; }
    .status {
      font-size:.65rem;
      text-transform:uppercase;
      letter-spacing:.1em;
      border:2px solid var(--ink);
      padding:.4rem .9rem;
      background:#ffffff;
    }
    .counters { display:flex; gap:.6rem; margin:1.2rem 0; flex-wrap:wrap; }
    .counter {
      border:2px solid var(--ink);
      background:#fff;
      padding:.5rem .9rem;
      font-size:.65rem;
      text-transform:uppercase;
      letter-spacing:.1em;
    }
    .counter b { font-size:.9rem; display:block; }
    #events { display:flex; flex-direction:column; gap:.6rem; }
    .event {
      border:2px solid var(--ink);
      background:#fff;
      padding:.8rem 1rem;
      font-size:.7rem;
      display:flex;
      justify-content:space-between;
      gap:1rem;
      flex-wrap:wrap;
    }
    .event .pair { font-weight:700; }
    .event .ts { color:var(--ink-mid); }
    .outcome { text-transform:uppercase; letter-spacing:.08em; font-weight:700; }
    .outcome.completed { color:#1b9aaa; }
    .outcome.failed { color:#d7263d; }
    .outcome.skipped, .outcome.no_fill { color:#9c9c9c; }
    .empty-state {
      border:2px dashed var(--ink-soft);
      padding:2rem;
      text-align:center;
      font-size:.75rem;
      letter-spacing:.12em;
      text-transform:uppercase;
      color:var(--ink-mid);
    }
  </style>
</head>
<body>
  <div id="app">
    <header>
      <h1>rotor</h1>
      <div id="sse-status" class="status">Connecting…</div>
    </header>
    <div class="counters">
      <div class="counter">completed <b id="c-completed">0</b></div>
      <div class="counter">skipped <b id="c-skipped">0</b></div>
      <div class="counter">no fill <b id="c-no_fill">0</b></div>
      <div class="counter">failed <b id="c-failed">0</b></div>
    </div>
    <div id="events">
      <div id="emptyState" class="empty-state">Waiting for rotation events…</div>
    </div>
  </div>
<script>
const statusEl = document.getElementById('sse-status');
const eventsEl = document.getElementById('events');
const emptyState = document.getElementById('emptyState');
const counters = { completed:0, skipped:0, no_fill:0, failed:0 };
const MAX_EVENTS = 200;

const formatTs = (ts) => {
  if(!ts){ return ''; }
  const date = new Date(ts);
  if(Number.isNaN(date.getTime())){ return ''; }
  return date.toLocaleTimeString([], { hour12:false });
};

function bumpCounter(outcome){
  if(!(outcome in counters)){ return; }
  counters[outcome] += 1;
  document.getElementById('c-' + outcome).textContent = counters[outcome];
}

function renderEvent(event){
  if(emptyState && emptyState.parentNode){
    emptyState.remove();
  }

  const row = document.createElement('div');
  row.className = 'event';

  const pair = document.createElement('span');
  pair.className = 'pair';
  pair.textContent = event.pair || '—';

  const stage = document.createElement('span');
  stage.textContent = event.stage || '';

  const outcome = document.createElement('span');
  if(event.outcome){
    outcome.className = 'outcome ' + event.outcome;
    outcome.textContent = event.outcome.replace(/_/g, ' ') +
      (event.reason ? ' · ' + event.reason.replace(/_/g, ' ') : '');
    bumpCounter(event.outcome);
  }

  const detail = document.createElement('span');
  if(event.price){
    detail.textContent = '@ ' + event.price;
  } else if(event.detail){
    detail.textContent = event.detail;
  }

  const ts = document.createElement('span');
  ts.className = 'ts';
  ts.textContent = formatTs(event.ts);

  row.append(pair, stage, outcome, detail, ts);
  eventsEl.insertBefore(row, eventsEl.firstChild);

  while(eventsEl.children.length > MAX_EVENTS){
    eventsEl.removeChild(eventsEl.lastChild);
  }
}

function connectSSE(){
  const source = new EventSource('/rotations/stream');
  statusEl.textContent = 'Status: receiving data';
  source.addEventListener('rotation', (event) => {
    try{
      renderEvent(JSON.parse(event.data));
    }catch(err){
      console.error('payload parse', err);
    }
  });
  source.addEventListener('error', () => {
    statusEl.textContent = 'Reconnecting…';
    source.close();
    setTimeout(connectSSE, 2000);
  });
}

connectSSE();
</script>
</body>
</html>`
