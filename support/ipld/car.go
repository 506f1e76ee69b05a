package ipld

import (
	"context"
	"io"

	block "github.com/ipfs/go-block-format"
	cid "github.com/ipfs/go-cid"
	ipldcbor "github.com/ipfs/go-ipld-cbor"
	format "github.com/ipfs/go-ipld-format"
	car "github.com/ipld/go-car"
	mh "github.com/multiformats/go-multihash"
	"golang.org/x/xerrors"
)

// Writes the DAGs rooted at roots from bs to w in CAR format.
func ExportCAR(ctx context.Context, bs ipldcbor.IpldBlockstore, roots []cid.Cid, w io.Writer) error {
	if err := car.WriteCar(ctx, &dagService{bs: bs}, roots, w); err != nil {
		return xerrors.Errorf("failed to write car: %w", err)
	}
	return nil
}

// Reads every block of a CAR file into bs and returns the file's roots.
func ImportCAR(bs ipldcbor.IpldBlockstore, r io.Reader) ([]cid.Cid, error) {
	header, err := car.LoadCar(bs, r)
	if err != nil {
		return nil, xerrors.Errorf("failed to load car: %w", err)
	}
	return header.Roots, nil
}

// Decodes dag-cbor blocks from a block store so the CAR writer can walk their links.
type dagService struct {
	bs ipldcbor.IpldBlockstore
}

var _ format.DAGService = (*dagService)(nil)

func (ds *dagService) Get(_ context.Context, c cid.Cid) (format.Node, error) {
	// Identity CIDs (such as actor code IDs) carry their data inline and are never stored.
	if c.Prefix().MhType == mh.IDENTITY {
		return newInlineNode(c)
	}
	blk, err := ds.bs.Get(c)
	if err != nil {
		return nil, err
	}
	return ipldcbor.DecodeBlock(blk)
}

func (ds *dagService) GetMany(ctx context.Context, cids []cid.Cid) <-chan *format.NodeOption {
	out := make(chan *format.NodeOption, len(cids))
	for _, c := range cids {
		nd, err := ds.Get(ctx, c)
		out <- &format.NodeOption{Node: nd, Err: err}
	}
	close(out)
	return out
}

func (ds *dagService) Add(_ context.Context, nd format.Node) error {
	blk, err := block.NewBlockWithCid(nd.RawData(), nd.Cid())
	if err != nil {
		return err
	}
	return ds.bs.Put(blk)
}

func (ds *dagService) AddMany(ctx context.Context, nds []format.Node) error {
	for _, nd := range nds {
		if err := ds.Add(ctx, nd); err != nil {
			return err
		}
	}
	return nil
}

func (ds *dagService) Remove(context.Context, cid.Cid) error {
	return xerrors.New("block removal not supported")
}

func (ds *dagService) RemoveMany(context.Context, []cid.Cid) error {
	return xerrors.New("block removal not supported")
}

// A link-free node whose data is the digest of an identity CID.
type inlineNode struct {
	block.Block
}

var _ format.Node = (*inlineNode)(nil)

func newInlineNode(c cid.Cid) (*inlineNode, error) {
	decoded, err := mh.Decode(c.Hash())
	if err != nil {
		return nil, xerrors.Errorf("failed to decode identity cid %v: %w", c, err)
	}
	blk, err := block.NewBlockWithCid(decoded.Digest, c)
	if err != nil {
		return nil, err
	}
	return &inlineNode{Block: blk}, nil
}

func (n *inlineNode) Resolve(path []string) (interface{}, []string, error) {
	return nil, nil, xerrors.Errorf("inline node has no path %v", path)
}

func (n *inlineNode) Tree(string, int) []string {
	return nil
}

func (n *inlineNode) ResolveLink(path []string) (*format.Link, []string, error) {
	return nil, nil, xerrors.Errorf("inline node has no link %v", path)
}

func (n *inlineNode) Copy() format.Node {
	return &inlineNode{Block: n.Block}
}

func (n *inlineNode) Links() []*format.Link {
	return nil
}

func (n *inlineNode) Stat() (*format.NodeStat, error) {
	return &format.NodeStat{}, nil
}

func (n *inlineNode) Size() (uint64, error) {
	return uint64(len(n.RawData())), nil
}
