package x11

import (
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	mu    sync.Mutex
	atoms map[string]xproto.Atom

	// post delivers a client message in place of the X server when set.
	post func(windowID xproto.Window, msgType xproto.Atom, data []uint32) error
}

// NewConnection establishes a connection to the X11 server named by $DISPLAY.
func NewConnection() (*Connection, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}

	return &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
		atoms: make(map[string]xproto.Atom),
	}, nil
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}

// internAtom resolves an atom by name. Atoms never change for the life of
// a connection, so each name is asked for once.
func (c *Connection) internAtom(name string) (xproto.Atom, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if atom, ok := c.atoms[name]; ok {
		return atom, nil
	}
	reply, err := xproto.InternAtom(c.XUtil.Conn(), false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	if c.atoms == nil {
		c.atoms = make(map[string]xproto.Atom)
	}
	c.atoms[name] = reply.Atom
	return reply.Atom, nil
}

// sendRootMessage sends a 32-bit client message about windowID to the root
// window, the way pagers talk to an EWMH window manager.
func (c *Connection) sendRootMessage(windowID xproto.Window, atomName string, data []uint32) error {
	atom, err := c.internAtom(atomName)
	if err != nil {
		return err
	}

	for len(data) < 5 {
		data = append(data, 0)
	}
	if c.post != nil {
		return c.post(windowID, atom, data)
	}
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   atom,
		Data:   xproto.ClientMessageDataUnionData32New(data),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}
