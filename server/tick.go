package server

import "time"

// Start 启动房间循环（单协程推进权威状态）
func (r *Room) Start() {
	if r.loopStarted {
		return
	}
	r.loopStarted = true
	go r.run()
}

// run 服务端没有连续物理：只按到达顺序处理注册、离开与输入
func (r *Room) run() {
	defer close(r.stopped)
	defer r.shutdown()
	for {
		select {
		case <-r.done:
			return
		case req := <-r.joinChan:
			r.handleJoin(req)
		case pid := <-r.leaveChan:
			r.handleLeave(pid)
		case in := <-r.inputChan:
			start := time.Now()
			r.handleInput(in)
			r.metrics.AddProcess(time.Since(start).Nanoseconds())
		}
	}
}

// Stop 关闭所有连接并等待循环退出
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.done) })
	if r.loopStarted {
		<-r.stopped
	}
}

func (r *Room) shutdown() {
	for _, p := range r.seats {
		if p != nil {
			p.Conn.Close()
		}
	}
	r.seats = [2]*Player{}
	r.players.Store(0)
	if r.recorder != nil {
		r.recorder.Close()
		r.recorder = nil
	}
}
