package main

// 引入网卡驱动插件，触发各驱动的 init() 完成注册
import (
	_ "github.com/sshcollectorpro/ethtoolpro/addone/driver/platforms/ice"
	_ "github.com/sshcollectorpro/ethtoolpro/addone/driver/platforms/idpf"
	_ "github.com/sshcollectorpro/ethtoolpro/addone/driver/platforms/igb"
)
