package report

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WebReporter broadcasts report rows as JSON over websockets so a browser
// can live-plot the run. Connected clients are tracked per reporter
// instance and deregistered on disconnect.
type WebReporter struct {
	*ObservableReporter

	addr     string
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	srv *http.Server
}

func NewWebReporter(addr string, interval int64, selection *Selection) *WebReporter {
	w := &WebReporter{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
	w.ObservableReporter = NewObservableReporter(interval, selection, w.broadcast)
	return w
}

// Start begins serving the plot page and websocket endpoint. The listener
// is bound synchronously so address errors surface to the caller.
func (w *WebReporter) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", w.handleIndex)
	mux.HandleFunc("/ws", w.handleWS)

	ln, err := net.Listen("tcp", w.addr)
	if err != nil {
		return err
	}
	w.srv = &http.Server{Handler: mux}
	go func() {
		if err := w.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logrus.Errorf("web reporter server: %v", err)
		}
	}()
	logrus.Infof("live plot available at http://%s/", ln.Addr())
	return nil
}

// Close stops the server and drops all clients.
func (w *WebReporter) Close() error {
	w.mu.Lock()
	for conn := range w.clients {
		conn.Close()
	}
	w.clients = make(map[*websocket.Conn]struct{})
	w.mu.Unlock()
	if w.srv == nil {
		return nil
	}
	return w.srv.Close()
}

func (w *WebReporter) handleIndex(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.Write([]byte(plotPage))
}

func (w *WebReporter) handleWS(rw http.ResponseWriter, r *http.Request) {
	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		logrus.Warnf("websocket upgrade failed: %v", err)
		return
	}
	w.mu.Lock()
	w.clients[conn] = struct{}{}
	w.mu.Unlock()

	// Reads are only consumed to detect disconnection.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				w.drop(conn)
				return
			}
		}
	}()
}

func (w *WebReporter) drop(conn *websocket.Conn) {
	w.mu.Lock()
	delete(w.clients, conn)
	w.mu.Unlock()
	conn.Close()
}

func (w *WebReporter) broadcast(s Sample) error {
	row := map[string]float64{"Step": float64(s.Step), "Time [ps]": s.Time}
	for i, label := range w.Labels() {
		row[label] = s.Values[i]
	}
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}

	w.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(w.clients))
	for conn := range w.clients {
		conns = append(conns, conn)
	}
	w.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			w.drop(conn)
		}
	}
	return nil
}

const plotPage = `<!DOCTYPE html>
<html>
<head>
<title>mdsim live plot</title>
<style>
body { font-family: sans-serif; margin: 2em; }
canvas { border: 1px solid #ccc; display: block; margin-bottom: 1.5em; }
</style>
</head>
<body>
<h2>mdsim live plot</h2>
<div id="charts"></div>
<script>
const series = {};
const socket = new WebSocket('ws://' + location.host + '/ws');
socket.onmessage = function(packet) {
  const row = JSON.parse(packet.data);
  for (const key in row) {
    if (key === 'Step' || key === 'Time [ps]') continue;
    if (!(key in series)) {
      const canvas = document.createElement('canvas');
      canvas.width = 640; canvas.height = 180;
      const label = document.createElement('div');
      label.textContent = key;
      document.getElementById('charts').append(label, canvas);
      series[key] = { xs: [], ys: [], ctx: canvas.getContext('2d') };
    }
    const s = series[key];
    s.xs.push(row['Time [ps]']);
    s.ys.push(row[key]);
    draw(s);
  }
};
function draw(s) {
  const ctx = s.ctx, w = 640, h = 180;
  ctx.clearRect(0, 0, w, h);
  const ymin = Math.min(...s.ys), ymax = Math.max(...s.ys);
  const span = (ymax - ymin) || 1;
  ctx.beginPath();
  s.ys.forEach((y, i) => {
    const px = i / Math.max(s.ys.length - 1, 1) * (w - 10) + 5;
    const py = h - 10 - (y - ymin) / span * (h - 20);
    i === 0 ? ctx.moveTo(px, py) : ctx.lineTo(px, py);
  });
  ctx.strokeStyle = '#2266cc';
  ctx.stroke();
}
</script>
</body>
</html>
`
