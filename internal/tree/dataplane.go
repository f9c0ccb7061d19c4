package tree

import (
	"fmt"
	"sync"
	"time"
)

// ServerSock is a bound listening socket
type ServerSock struct {
	Bind string
}

func (s ServerSock) String() string { return s.Bind }

// Connection is an open tcp connection; ID is "remote/local"
type Connection struct {
	ID       string
	BytesIn  int64
	BytesOut int64
}

func (c Connection) String() string { return c.ID }

// Session pairs a frontend and a backend connection
type Session struct {
	Active  string
	Passive string
}

// ID identifies the session by both connection ids
func (s Session) ID() string { return s.Active + "->" + s.Passive }

func (s Session) String() string { return s.Active + " -> " + s.Passive }

// Counters are byte and accept counters of an owner
type Counters struct {
	BytesIn  int64
	BytesOut int64
	Accepted int64
}

// Iface is a switch interface learned at runtime
type Iface struct {
	Name string
	VNI  int
}

func (i Iface) String() string { return fmt.Sprintf("%s -> vni %d", i.Name, i.VNI) }

// ArpEntry is a learned mac/ip binding inside a vpc
type ArpEntry struct {
	MAC   string
	IP    string
	Iface string
	TTL   time.Duration
}

func (a ArpEntry) String() string {
	return fmt.Sprintf("%-17s  %-39s  %s  %ds", a.MAC, a.IP, a.Iface, int64(a.TTL/time.Second))
}

// DataPlane exposes runtime facts. Owners are canonical resource chains
// such as "tcp-lb lb0" or "server-sock 127.0.0.1:80 in tcp-lb lb0".
// Methods are called on the control plane and must not block.
type DataPlane interface {
	ServerSocks(owner string) []ServerSock
	Connections(owner string) []Connection
	Sessions(owner string) []Session
	Counters(owner string) Counters
	Ifaces(switchName string) []Iface
	Arp(switchName string, vni int) []ArpEntry

	// CloseConnection and CloseSession report whether id was open
	CloseConnection(owner, id string) bool
	CloseSession(owner, id string) bool
}

// MemoryDataPlane records runtime facts fed to it. It is the data plane
// of a control-only process and of tests.
type MemoryDataPlane struct {
	mutex    sync.Mutex
	socks    map[string][]ServerSock
	conns    map[string][]Connection
	sessions map[string][]Session
	counters map[string]Counters
	ifaces   map[string][]Iface
	arp      map[string][]ArpEntry
}

// NewMemoryDataPlane creates an empty recorder
func NewMemoryDataPlane() *MemoryDataPlane {
	return &MemoryDataPlane{
		socks:    make(map[string][]ServerSock),
		conns:    make(map[string][]Connection),
		sessions: make(map[string][]Session),
		counters: make(map[string]Counters),
		ifaces:   make(map[string][]Iface),
		arp:      make(map[string][]ArpEntry),
	}
}

func arpKey(switchName string, vni int) string { return fmt.Sprintf("%s/%d", switchName, vni) }

// AddServerSock records a listening socket
func (m *MemoryDataPlane) AddServerSock(owner string, s ServerSock) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.socks[owner] = append(m.socks[owner], s)
}

// AddConnection records an open connection
func (m *MemoryDataPlane) AddConnection(owner string, c Connection) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.conns[owner] = append(m.conns[owner], c)
}

// AddSession records an open session
func (m *MemoryDataPlane) AddSession(owner string, s Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[owner] = append(m.sessions[owner], s)
}

// SetCounters replaces the counters of owner
func (m *MemoryDataPlane) SetCounters(owner string, c Counters) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.counters[owner] = c
}

// AddIface records a learned interface
func (m *MemoryDataPlane) AddIface(switchName string, i Iface) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.ifaces[switchName] = append(m.ifaces[switchName], i)
}

// AddArp records a learned arp entry
func (m *MemoryDataPlane) AddArp(switchName string, vni int, e ArpEntry) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	k := arpKey(switchName, vni)
	m.arp[k] = append(m.arp[k], e)
}

func (m *MemoryDataPlane) ServerSocks(owner string) []ServerSock {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]ServerSock(nil), m.socks[owner]...)
}

func (m *MemoryDataPlane) Connections(owner string) []Connection {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]Connection(nil), m.conns[owner]...)
}

func (m *MemoryDataPlane) Sessions(owner string) []Session {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]Session(nil), m.sessions[owner]...)
}

// Counters sums the recorded counters with the bytes of connections open
// under owner
func (m *MemoryDataPlane) Counters(owner string) Counters {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	c := m.counters[owner]
	for _, conn := range m.conns[owner] {
		c.BytesIn += conn.BytesIn
		c.BytesOut += conn.BytesOut
	}
	return c
}

func (m *MemoryDataPlane) Ifaces(switchName string) []Iface {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]Iface(nil), m.ifaces[switchName]...)
}

func (m *MemoryDataPlane) Arp(switchName string, vni int) []ArpEntry {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]ArpEntry(nil), m.arp[arpKey(switchName, vni)]...)
}

func (m *MemoryDataPlane) CloseConnection(owner, id string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	conns := m.conns[owner]
	for i, c := range conns {
		if c.ID == id {
			m.conns[owner] = append(conns[:i:i], conns[i+1:]...)
			return true
		}
	}
	return false
}

func (m *MemoryDataPlane) CloseSession(owner, id string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	sessions := m.sessions[owner]
	for i, s := range sessions {
		if s.ID() == id {
			m.sessions[owner] = append(sessions[:i:i], sessions[i+1:]...)
			return true
		}
	}
	return false
}
