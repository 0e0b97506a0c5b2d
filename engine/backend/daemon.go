package backend

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"

	"github.com/spaghettifunk/astra/engine/core"
	"github.com/spaghettifunk/astra/engine/loader"
)

const (
	statusOK         = "ok"
	statusNotFound   = "not_found"
	statusNotIndexed = "not_indexed"
	statusError      = "error"
)

type assetRequest struct {
	Path string `json:"path"`
}

// assetResponse is the control frame preceding the binary payload. On any
// status other than "ok" no payload follows.
type assetResponse struct {
	Path   string `json:"path"`
	Status string `json:"status"`
	Type   string `json:"type,omitempty"`
	Size   int64  `json:"size,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Daemon watches an asset directory, keeps an extension-driven index of the
// assets below it, and serves their bytes to DaemonClients over a websocket
// endpoint. It stands in for an out-of-process build daemon; running it
// in-process keeps directory mode self-contained.
type Daemon struct {
	root  string
	addr  string
	types map[string]loader.AssetTypeID // extension -> asset type

	mu    sync.RWMutex
	index map[string]string // slash path relative to root -> disk path

	watcher  *fsnotify.Watcher
	listener net.Listener
	server   *http.Server
	done     chan struct{}
}

func NewDaemon(root, addr string) (*Daemon, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("asset directory %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset directory %q: not a directory", root)
	}
	return &Daemon{
		root:  root,
		addr:  addr,
		types: make(map[string]loader.AssetTypeID),
		index: make(map[string]string),
		done:  make(chan struct{}),
	}, nil
}

// WithImporter registers an asset type for a file extension (".png" style).
// Files with unregistered extensions are invisible to the daemon. Call before
// Start.
func (d *Daemon) WithImporter(extension string, typeID loader.AssetTypeID) *Daemon {
	d.types[strings.ToLower(extension)] = typeID
	return d
}

// Start scans the asset directory, begins watching it for changes and starts
// serving. It returns once the daemon is listening.
func (d *Daemon) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	d.watcher = watcher

	if err := d.watchRecursive(d.root); err != nil {
		watcher.Close()
		return err
	}

	listener, err := net.Listen("tcp", d.addr)
	if err != nil {
		watcher.Close()
		return err
	}
	d.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/assets", d.serveAssets)
	d.server = &http.Server{Handler: mux}

	go d.watchLoop()
	go func() {
		if err := d.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			core.LogError("asset daemon server: %v", err)
		}
	}()

	core.LogInfo("asset daemon watching %q, serving on %s", d.root, d.Addr())
	return nil
}

// Addr returns the address the daemon is listening on, useful when the
// configured address picked an ephemeral port.
func (d *Daemon) Addr() string {
	return d.listener.Addr().String()
}

func (d *Daemon) Close() error {
	close(d.done)
	d.watcher.Close()
	return d.server.Close()
}

// lookup resolves a request path against the index. A file that exists on
// disk with a known extension but is not indexed yet is reported transient.
func (d *Daemon) lookup(path string) (string, loader.AssetTypeID, string) {
	typeID, known := d.types[strings.ToLower(filepath.Ext(path))]
	if !known {
		return "", loader.AssetTypeID{}, statusNotFound
	}

	d.mu.RLock()
	diskPath, ok := d.index[path]
	d.mu.RUnlock()
	if ok {
		return diskPath, typeID, statusOK
	}

	if _, err := os.Stat(filepath.Join(d.root, filepath.FromSlash(path))); err == nil {
		return "", loader.AssetTypeID{}, statusNotIndexed
	}
	return "", loader.AssetTypeID{}, statusNotFound
}

func (d *Daemon) serveAssets(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		core.LogError("asset daemon upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	for {
		var req assetRequest
		if err := ws.ReadJSON(&req); err != nil {
			if _, closed := err.(*websocket.CloseError); !closed {
				core.LogDebug("asset daemon connection ended: %v", err)
			}
			return
		}
		if err := d.answer(ws, req.Path); err != nil {
			core.LogError("asset daemon reply for %q failed: %v", req.Path, err)
			return
		}
	}
}

func (d *Daemon) answer(ws *websocket.Conn, path string) error {
	diskPath, typeID, status := d.lookup(path)
	if status != statusOK {
		return ws.WriteJSON(assetResponse{Path: path, Status: status})
	}

	data, err := os.ReadFile(diskPath)
	if err != nil {
		return ws.WriteJSON(assetResponse{Path: path, Status: statusError, Error: err.Error()})
	}

	resp := assetResponse{
		Path:   path,
		Status: statusOK,
		Type:   typeID.String(),
		Size:   int64(len(data)),
	}
	if err := ws.WriteJSON(resp); err != nil {
		return err
	}
	return ws.WriteMessage(websocket.BinaryMessage, data)
}

func (d *Daemon) watchLoop() {
	for {
		select {
		case e, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := d.watchRecursive(e.Name); err != nil {
						core.LogError("failed to watch new directory %q: %v", e.Name, err)
					}
				}
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				d.indexFile(e.Name)
			}
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				d.removeAsset(e.Name)
			}

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			core.LogError("asset daemon watcher: %v", err)

		case <-d.done:
			return
		}
	}
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes the files it passes on the way.
func (d *Daemon) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return d.watcher.Add(walkPath)
		}
		d.indexFile(walkPath)
		return nil
	})
}

func (d *Daemon) indexFile(diskPath string) {
	if _, known := d.types[strings.ToLower(filepath.Ext(diskPath))]; !known {
		return
	}
	rel, err := filepath.Rel(d.root, diskPath)
	if err != nil {
		return
	}
	d.mu.Lock()
	d.index[filepath.ToSlash(rel)] = diskPath
	d.mu.Unlock()
}

func (d *Daemon) removeAsset(diskPath string) {
	rel, err := filepath.Rel(d.root, diskPath)
	if err != nil {
		return
	}
	d.mu.Lock()
	delete(d.index, filepath.ToSlash(rel))
	d.mu.Unlock()
}
