package pos

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// TransactionIDPrefix starts every generated transaction id.
const TransactionIDPrefix = "TXN"

// IDGenerator hands out collision-resistant transaction ids. Ids from one
// node are strictly increasing; distinct nodes never collide.
type IDGenerator struct {
	node *snowflake.Node
}

// NewIDGenerator creates a generator for the given node (0-1023).
func NewIDGenerator(nodeID int64) (*IDGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("invalid snowflake node %d: %w", nodeID, err)
	}
	return &IDGenerator{node: node}, nil
}

// Next returns a fresh id such as TXN1760000000000000001.
func (g *IDGenerator) Next() string {
	return TransactionIDPrefix + g.node.Generate().String()
}
