// pool.go - a bounded pool of SFTP clients
//
// (c) 2024 Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package scp

import (
	"errors"
	"io"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// Pool is a bounded FIFO of ready SFTP clients. Workers Get() one
// for the duration of a single remote op and Put() it back; there is
// no per-worker affinity.
type Pool struct {
	clients chan *sftp.Client
	conns   []io.Closer
	n       int
}

// NewPool builds a pool around caller supplied clients. The pool
// owns them from here on; Close() closes them.
func NewPool(clients ...*sftp.Client) *Pool {
	p := &Pool{
		clients: make(chan *sftp.Client, len(clients)),
		n:       len(clients),
	}
	for _, c := range clients {
		p.clients <- c
	}
	return p
}

// Dial establishes 'n' independent SSH connections to 'addr' and
// opens one SFTP channel on each. Credential handling is the
// caller's problem: cfg must be ready to authenticate.
func Dial(addr string, cfg *ssh.ClientConfig, n int) (*Pool, error) {
	if n <= 0 {
		n = 1
	}

	p := &Pool{
		clients: make(chan *sftp.Client, n),
	}
	for i := 0; i < n; i++ {
		conn, err := ssh.Dial("tcp", addr, cfg)
		if err != nil {
			p.Close()
			return nil, &Error{"dial", addr, err}
		}

		cl, err := sftp.NewClient(conn)
		if err != nil {
			conn.Close()
			p.Close()
			return nil, &Error{"sftp", addr, err}
		}

		p.conns = append(p.conns, conn)
		p.clients <- cl
		p.n++
	}
	return p, nil
}

// Get blocks until a client is free and returns it
func (p *Pool) Get() *sftp.Client {
	return <-p.clients
}

// Put returns a client obtained from Get
func (p *Pool) Put(c *sftp.Client) {
	p.clients <- c
}

// Size returns the number of clients the pool was built with
func (p *Pool) Size() int {
	return p.n
}

// Close waits for all clients to be returned and closes them, then
// tears down the underlying connections.
func (p *Pool) Close() error {
	var errs []error
	for i := 0; i < p.n; i++ {
		c := <-p.clients
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range p.conns {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
