package uid

import (
	"net"
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/rs/xid"
)

// Generator produces unique string ids.
type Generator func() string

// snowflake (8bytes)

type Node struct {
	*snowflake.Node
}

// NewNode uses nodeID (0 --> 1023) when given, otherwise derives one from the host.
func NewNode(nodeID ...int64) (*Node, error) {
	var id int64
	if len(nodeID) == 0 {
		id = centerID() | workID()
	} else {
		id = nodeID[0]
	}
	node, err := snowflake.NewNode(id)
	if err != nil {
		return nil, err
	}
	return &Node{Node: node}, nil
}

func (n *Node) GenerateID() int64 {
	return n.Generate().Int64()
}

// Generator adapts the node to string ids.
func (n *Node) Generator() Generator {
	return func() string {
		return strconv.FormatInt(n.GenerateID(), 10)
	}
}

// center id 5bits, from the first non loopback ipv4 address
func centerID() int64 {
	address, err := net.InterfaceAddrs()
	if err != nil {
		return 0
	}
	var ip string
	for _, addr := range address {
		in, ok := addr.(*net.IPNet)
		if !ok || in.IP.IsLoopback() || in.IP.To4() == nil {
			continue
		}
		ip = in.IP.String()
		break
	}
	var sum uint8
	for _, bs := range []byte(ip) {
		sum += bs
	}
	return int64(sum%32) << 5
}

// work id 5bits, from the hostname
func workID() int64 {
	hn, err := os.Hostname()
	if err != nil {
		return 0
	}
	var sum uint8
	for _, bs := range []byte(hn) {
		sum += bs
	}
	return int64(sum % 32)
}

// xid (12bytes)

func GenerateID() string {
	return xid.New().String()
}

func UUID() string {
	return uuid.New().String()
}
