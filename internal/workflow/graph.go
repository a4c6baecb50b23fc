// Package workflow computes status transition paths over a tracker's
// workflow graph.
package workflow

// Graph はステータスから遷移可能な次ステータスの順序付きリストへの対応表
type Graph map[string][]string

// Path returns the shortest status sequence from `from` to any status in
// targets, both ends included.
//
// If from is already a target the result is [from]. If no target is
// reachable the result is also [from]; callers tell the two apart by checking
// whether from is a target. Among equally short paths the one that comes
// first in adjacency order wins. A status that is missing from the graph or
// has no outgoing edges is a dead end. Targets are never expanded, and every
// status is visited at most once, so cyclic or densely connected graphs
// terminate in O(V+E).
func (g Graph) Path(from string, targets []string) []string {
	if isTarget(targets, from) {
		return []string{from}
	}

	parent := map[string]string{}
	visited := map[string]bool{from: true}
	queue := []string{from}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range g[current] {
			if visited[next] {
				continue
			}
			visited[next] = true
			parent[next] = current

			if isTarget(targets, next) {
				return buildPath(parent, from, next)
			}
			queue = append(queue, next)
		}
	}

	return []string{from}
}

// Reachable はPathの結果が目的ステータスで終わり、かつ遷移を伴うかを返す
func Reachable(path []string, targets []string) bool {
	return len(path) > 1 && isTarget(targets, path[len(path)-1])
}

func buildPath(parent map[string]string, from, to string) []string {
	var reversed []string
	for node := to; node != from; node = parent[node] {
		reversed = append(reversed, node)
	}
	reversed = append(reversed, from)

	path := make([]string, len(reversed))
	for i, node := range reversed {
		path[len(reversed)-1-i] = node
	}
	return path
}

func isTarget(targets []string, status string) bool {
	for _, t := range targets {
		if t == status {
			return true
		}
	}
	return false
}

// Hop は1回のステータス遷移
type Hop struct {
	From string
	To   string
}

// Hops splits a path into the status updates needed to walk it. A path of
// length one or less needs no update.
func Hops(path []string) []Hop {
	if len(path) < 2 {
		return nil
	}
	hops := make([]Hop, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		hops = append(hops, Hop{From: path[i-1], To: path[i]})
	}
	return hops
}
